package wire

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestCreationKeepsEntryOrder(t *testing.T) {
	in := &Creation{
		Frame: 1234,
		Entries: []CreationEntry{
			{TypeName: "windlord", Layer: 1, Constant: []byte{1, 2}, Varying: []byte{3}},
			{TypeName: "wall", Layer: 0, Constant: []byte{9}, Varying: nil},
		},
	}
	msg, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	out, ok := msg.(*Creation)
	if !ok {
		t.Fatalf("Unmarshal returned %T, want *Creation", msg)
	}
	if out.Frame != in.Frame {
		t.Fatalf("Frame = %d, want %d", out.Frame, in.Frame)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(out.Entries))
	}
	if out.Entries[0].TypeName != "windlord" || out.Entries[1].TypeName != "wall" {
		t.Fatalf("entries out of order: %+v", out.Entries)
	}
	if out.Entries[0].Layer != 1 || !bytes.Equal(out.Entries[0].Constant, []byte{1, 2}) {
		t.Fatalf("entry 0 = %+v", out.Entries[0])
	}
}

func TestNegativeIDsSurvive(t *testing.T) {
	msg, err := Unmarshal(Marshal(&Deletion{Frame: 7, ID: -32767}))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if del := msg.(*Deletion); del.ID != -32767 || del.Frame != 7 {
		t.Fatalf("Deletion = %+v, want ID -32767 frame 7", del)
	}
}

func TestHoleUpdateTriangles(t *testing.T) {
	in := &HoleUpdate{Frame: 3, GobID: 12, Triangles: []int{5, 0, 4096, 17}}
	msg, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	out := msg.(*HoleUpdate)
	if out.GobID != 12 || len(out.Triangles) != 4 {
		t.Fatalf("HoleUpdate = %+v", out)
	}
	for i := range in.Triangles {
		if out.Triangles[i] != in.Triangles[i] {
			t.Fatalf("Triangles[%d] = %d, want %d", i, out.Triangles[i], in.Triangles[i])
		}
	}
}

func TestTruncatedMessageIsCorrupt(t *testing.T) {
	b := Marshal(&Update{Frame: 99, Entries: []UpdateEntry{{ID: 4, Varying: []byte{1, 2, 3, 4, 5}}}})
	for n := 2; n < len(b); n++ {
		if _, err := Unmarshal(b[:n]); err == nil {
			// Some prefixes happen to be complete messages with fewer fields.
			continue
		} else if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("Unmarshal(prefix %d) error = %v, want ErrCorrupt", n, err)
		}
	}
	if _, err := Unmarshal(b[:len(b)-1]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Unmarshal(truncated) error = %v, want ErrCorrupt", err)
	}
}

func TestUnknownKindIsCorrupt(t *testing.T) {
	if _, err := Unmarshal([]byte{0x7f, 0x08, 0x01}); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Unmarshal(unknown kind) error = %v, want ErrCorrupt", err)
	}
	if _, err := Unmarshal(nil); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Unmarshal(nil) error = %v, want ErrCorrupt", err)
	}
}

func TestWrongWireTypeIsCorrupt(t *testing.T) {
	// Field 1 of a deletion is a varint; encode it as bytes instead.
	b := []byte{byte(KindDeletion)}
	b = appendBytes(b, 1, []byte{1})
	if _, err := Unmarshal(b); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Unmarshal(wrong wire type) error = %v, want ErrCorrupt", err)
	}
}

func TestInputControls(t *testing.T) {
	msg, err := Unmarshal(Marshal(&Input{Frame: 8, Controls: ControlThrust | ControlFire}))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	in := msg.(*Input)
	if !in.Controls.Has(ControlFire) || in.Controls.Has(ControlLeft) {
		t.Fatalf("Controls = %b", in.Controls)
	}
}
