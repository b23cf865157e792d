package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"assaultwing/wire"
)

var testCodec = PoseCodec{Bounds: Bounds{Min: 0, Max: 16000}}

func encodePose(id ID, p Pose, t *PoseTable, frame int64) []byte {
	w := newSegmentWriter()
	testCodec.Encode(w, id, p, t, frame)
	return w.bytes()
}

func decodePose(t *testing.T, b []byte, id ID, table *PoseTable) Pose {
	t.Helper()
	r := newSegmentReader(b)
	p, err := testCodec.Decode(r, id, table)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n := r.remaining(); n != 0 {
		t.Fatalf("Decode left %d bytes", n)
	}
	return p
}

func TestFullThenDeltaUpdate(t *testing.T) {
	sent, received := NewPoseTable(60), NewPoseTable(60)

	b := encodePose(1, Pose{Pos: Vector{X: 8000, Y: 8000}}, sent, 0)
	if b[0]&fullUpdateFlag == 0 {
		t.Fatalf("first update is not full: % x", b)
	}
	p := decodePose(t, b, 1, received)
	if math.Abs(p.Pos.X-8000) > 0.25 || math.Abs(p.Pos.Y-8000) > 0.25 {
		t.Fatalf("full update decoded to %v, want (8000, 8000) ±0.25", p.Pos)
	}
	if p.Rotation != 0 {
		t.Fatalf("rotation = %v, want 0", p.Rotation)
	}

	b = encodePose(1, Pose{Pos: Vector{X: 8003, Y: 7999}}, sent, 1)
	if b[0]&fullUpdateFlag != 0 {
		t.Fatalf("small displacement sent as full update: % x", b)
	}
	p = decodePose(t, b, 1, received)
	if math.Abs(p.Pos.X-8003) > deltaStep || math.Abs(p.Pos.Y-7999) > deltaStep {
		t.Fatalf("delta update decoded to %v, want (8003, 7999) ±%v", p.Pos, deltaStep)
	}
}

func TestFullUpdatePrecision(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	step := testCodec.Bounds.span() / 65535
	for i := 0; i < 1000; i++ {
		want := Pose{
			Pos:      Vector{X: rnd.Float64() * 16000, Y: rnd.Float64() * 16000},
			Rotation: rnd.Float64() * 2 * math.Pi,
		}
		got := decodePose(t, encodePose(7, want, NewPoseTable(60), 0), 7, NewPoseTable(60))
		if math.Abs(got.Pos.X-want.Pos.X) > step || math.Abs(got.Pos.Y-want.Pos.Y) > step {
			t.Fatalf("position %v decoded to %v", want.Pos, got.Pos)
		}
		if d := math.Abs(angleDiff(got.Rotation, want.Rotation)); d > 2*math.Pi/rotationSteps {
			t.Fatalf("rotation %v decoded to %v", want.Rotation, got.Rotation)
		}
	}
}

func TestDeltaChainsOnBothSides(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	sent, received := NewPoseTable(1 << 30), NewPoseTable(1 << 30)
	pos := Vector{X: 4000, Y: 12000}
	for frame := int64(0); frame < 2000; frame++ {
		pos = pos.Add(Vector{X: rnd.Float64()*30 - 15, Y: rnd.Float64()*30 - 15})
		b := encodePose(3, Pose{Pos: pos}, sent, frame)
		if frame > 0 && b[0]&fullUpdateFlag != 0 {
			t.Fatalf("frame %d: in-range displacement sent as full update", frame)
		}
		got := decodePose(t, b, 3, received)
		if frame > 0 && (math.Abs(got.Pos.X-pos.X) > deltaStep/2+1e-9 || math.Abs(got.Pos.Y-pos.Y) > deltaStep/2+1e-9) {
			t.Fatalf("frame %d: decoded %v, want %v", frame, got.Pos, pos)
		}
		s, _ := sent.Last(3)
		r, _ := received.Last(3)
		if s != r {
			t.Fatalf("frame %d: sender remembers %v, receiver %v", frame, s, r)
		}
	}
}

func TestLargeDisplacementForcesFullUpdate(t *testing.T) {
	for _, d := range []Vector{{X: 16, Y: 0}, {X: 0, Y: -16.2}, {X: 300, Y: 300}, {X: math.NaN(), Y: 0}} {
		sent := NewPoseTable(60)
		encodePose(1, Pose{Pos: Vector{X: 1000, Y: 1000}}, sent, 0)
		b := encodePose(1, Pose{Pos: Vector{X: 1000, Y: 1000}.Add(d)}, sent, 1)
		if b[0]&fullUpdateFlag == 0 {
			t.Fatalf("displacement %v sent as delta", d)
		}
	}
	sent := NewPoseTable(60)
	encodePose(1, Pose{Pos: Vector{X: 1000, Y: 1000}}, sent, 0)
	if b := encodePose(1, Pose{Pos: Vector{X: 1015.8, Y: 984.1}}, sent, 1); b[0]&fullUpdateFlag != 0 {
		t.Fatalf("displacement within the delta range sent as full update")
	}
}

func TestPeriodicFullResync(t *testing.T) {
	sent := NewPoseTable(5)
	var full []int64
	for frame := int64(0); frame <= 12; frame++ {
		b := encodePose(1, Pose{Pos: Vector{X: 500 + float64(frame), Y: 500}}, sent, frame)
		if b[0]&fullUpdateFlag != 0 {
			full = append(full, frame)
		}
	}
	if len(full) != 3 || full[0] != 0 || full[1] != 5 || full[2] != 10 {
		t.Fatalf("full updates at frames %v, want [0 5 10]", full)
	}
}

func TestInvalidateForcesFullUpdate(t *testing.T) {
	sent := NewPoseTable(60)
	encodePose(1, Pose{Pos: Vector{X: 100, Y: 100}}, sent, 0)
	sent.Invalidate()
	if b := encodePose(1, Pose{Pos: Vector{X: 101, Y: 100}}, sent, 1); b[0]&fullUpdateFlag == 0 {
		t.Fatal("update after Invalidate is not full")
	}
}

func TestVelocityIsHalfPrecision(t *testing.T) {
	want := Vector{X: 123.4, Y: -56.7}
	got := decodePose(t, encodePose(1, Pose{Pos: Vector{X: 1, Y: 1}, Move: want}, NewPoseTable(60), 0), 1, NewPoseTable(60))
	if math.Abs(got.Move.X-want.X) > 0.1 || math.Abs(got.Move.Y-want.Y) > 0.05 {
		t.Fatalf("move %v decoded to %v", want, got.Move)
	}
}

func TestDecodeCorruptPose(t *testing.T) {
	delta := []byte{0x10, 128, 128, 0, 0, 0, 0}
	if _, err := testCodec.Decode(newSegmentReader(delta), 1, NewPoseTable(60)); !errors.Is(err, wire.ErrCorrupt) {
		t.Fatalf("delta without base: err = %v, want ErrCorrupt", err)
	}
	full := encodePose(1, Pose{Pos: Vector{X: 5, Y: 5}}, NewPoseTable(60), 0)
	for n := 0; n < len(full); n++ {
		if _, err := testCodec.Decode(newSegmentReader(full[:n]), 1, NewPoseTable(60)); !errors.Is(err, wire.ErrCorrupt) {
			t.Fatalf("truncated to %d bytes: err = %v, want ErrCorrupt", n, err)
		}
	}
}
