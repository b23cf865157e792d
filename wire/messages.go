package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// SessionStart opens an arena session on a client. Players holds the
// constant segment of every player and spectator in the game.
type SessionStart struct {
	ArenaSeq    int
	Arena       string
	PlayerCount int
	LocalPlayer int8
	Players     [][]byte
}

func (*SessionStart) Kind() Kind { return KindSessionStart }

func (m *SessionStart) appendBody(b []byte) []byte {
	b = appendInt(b, 1, int64(m.ArenaSeq))
	b = appendString(b, 2, m.Arena)
	b = appendInt(b, 3, int64(m.PlayerCount))
	b = appendInt(b, 4, int64(m.LocalPlayer))
	for _, p := range m.Players {
		b = appendBytes(b, 5, p)
	}
	return b
}

func (m *SessionStart) decodeBody(fs []field) error {
	for _, f := range fs {
		switch f.num {
		case 1, 3, 4:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			switch f.num {
			case 1:
				m.ArenaSeq = int(f.int())
			case 3:
				m.PlayerCount = int(f.int())
			case 4:
				m.LocalPlayer = int8(f.int())
			}
		case 2:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			m.Arena = string(f.bytes)
		case 5:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			m.Players = append(m.Players, f.bytes)
		}
	}
	return nil
}

// CreationEntry describes one gob in a Creation batch.
type CreationEntry struct {
	TypeName string
	Layer    int
	Constant []byte
	Varying  []byte
}

// Creation carries every relevant gob created during one server frame.
type Creation struct {
	Frame   int64
	Entries []CreationEntry
}

func (*Creation) Kind() Kind { return KindCreation }

func (m *Creation) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.Frame)
	for _, e := range m.Entries {
		var eb []byte
		eb = appendString(eb, 1, e.TypeName)
		eb = appendInt(eb, 2, int64(e.Layer))
		eb = appendBytes(eb, 3, e.Constant)
		eb = appendBytes(eb, 4, e.Varying)
		b = appendBytes(b, 2, eb)
	}
	return b
}

func (m *Creation) decodeBody(fs []field) error {
	for _, f := range fs {
		switch f.num {
		case 1:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			m.Frame = f.int()
		case 2:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			efs, err := decodeFields(f.bytes)
			if err != nil {
				return err
			}
			var e CreationEntry
			for _, ef := range efs {
				switch ef.num {
				case 1:
					if err := expect(ef, protowire.BytesType); err != nil {
						return err
					}
					e.TypeName = string(ef.bytes)
				case 2:
					if err := expect(ef, protowire.VarintType); err != nil {
						return err
					}
					e.Layer = int(ef.int())
				case 3:
					if err := expect(ef, protowire.BytesType); err != nil {
						return err
					}
					e.Constant = ef.bytes
				case 4:
					if err := expect(ef, protowire.BytesType); err != nil {
						return err
					}
					e.Varying = ef.bytes
				}
			}
			m.Entries = append(m.Entries, e)
		}
	}
	return nil
}

// UpdateEntry is the varying segment of one gob.
type UpdateEntry struct {
	ID      int16
	Varying []byte
}

// Update carries the periodic and forced gob updates of one server frame.
type Update struct {
	Frame   int64
	Entries []UpdateEntry
}

func (*Update) Kind() Kind { return KindUpdate }

func (m *Update) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.Frame)
	for _, e := range m.Entries {
		var eb []byte
		eb = appendInt(eb, 1, int64(e.ID))
		eb = appendBytes(eb, 2, e.Varying)
		b = appendBytes(b, 2, eb)
	}
	return b
}

func (m *Update) decodeBody(fs []field) error {
	for _, f := range fs {
		switch f.num {
		case 1:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			m.Frame = f.int()
		case 2:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			efs, err := decodeFields(f.bytes)
			if err != nil {
				return err
			}
			var e UpdateEntry
			for _, ef := range efs {
				switch ef.num {
				case 1:
					id, err := decodeID(ef)
					if err != nil {
						return err
					}
					e.ID = id
				case 2:
					if err := expect(ef, protowire.BytesType); err != nil {
						return err
					}
					e.Varying = ef.bytes
				}
			}
			m.Entries = append(m.Entries, e)
		}
	}
	return nil
}

// Deletion removes one relevant gob.
type Deletion struct {
	Frame int64
	ID    int16
}

func (*Deletion) Kind() Kind { return KindDeletion }

func (m *Deletion) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.Frame)
	return appendInt(b, 2, int64(m.ID))
}

func (m *Deletion) decodeBody(fs []field) error {
	for _, f := range fs {
		switch f.num {
		case 1:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			m.Frame = f.int()
		case 2:
			id, err := decodeID(f)
			if err != nil {
				return err
			}
			m.ID = id
		}
	}
	return nil
}

// HoleUpdate lists the wall triangles one hole retired, in retirement order.
type HoleUpdate struct {
	Frame     int64
	GobID     int16
	Triangles []int
}

func (*HoleUpdate) Kind() Kind { return KindHoleUpdate }

func (m *HoleUpdate) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.Frame)
	b = appendInt(b, 2, int64(m.GobID))
	return appendPacked(b, 3, m.Triangles)
}

func (m *HoleUpdate) decodeBody(fs []field) error {
	for _, f := range fs {
		switch f.num {
		case 1:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			m.Frame = f.int()
		case 2:
			id, err := decodeID(f)
			if err != nil {
				return err
			}
			m.GobID = id
		case 3:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			ts, err := decodePacked(f.bytes)
			if err != nil {
				return err
			}
			m.Triangles = append(m.Triangles, ts...)
		}
	}
	return nil
}

// Join is the first message a client sends.
type Join struct {
	Name     string
	ShipType string
}

func (*Join) Kind() Kind { return KindJoin }

func (m *Join) appendBody(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	return appendString(b, 2, m.ShipType)
}

func (m *Join) decodeBody(fs []field) error {
	for _, f := range fs {
		if f.num != 1 && f.num != 2 {
			continue
		}
		if err := expect(f, protowire.BytesType); err != nil {
			return err
		}
		if f.num == 1 {
			m.Name = string(f.bytes)
		} else {
			m.ShipType = string(f.bytes)
		}
	}
	return nil
}

// Controls is the set of control intents held down by a player.
type Controls uint8

const (
	ControlThrust Controls = 1 << iota
	ControlLeft
	ControlRight
	ControlFire
)

func (c Controls) Has(o Controls) bool {
	return c&o != 0
}

// Input carries a player's control intents.
type Input struct {
	Frame    int64
	Controls Controls
}

func (*Input) Kind() Kind { return KindInput }

func (m *Input) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.Frame)
	return appendUint(b, 2, uint64(m.Controls))
}

func (m *Input) decodeBody(fs []field) error {
	for _, f := range fs {
		if f.num != 1 && f.num != 2 {
			continue
		}
		if err := expect(f, protowire.VarintType); err != nil {
			return err
		}
		if f.num == 1 {
			m.Frame = f.int()
		} else {
			m.Controls = Controls(f.value)
		}
	}
	return nil
}

// Ping asks the server for its current frame.
type Ping struct {
	ClientFrame int64
}

func (*Ping) Kind() Kind { return KindPing }

func (m *Ping) appendBody(b []byte) []byte {
	return appendInt(b, 1, m.ClientFrame)
}

func (m *Ping) decodeBody(fs []field) error {
	for _, f := range fs {
		if f.num != 1 {
			continue
		}
		if err := expect(f, protowire.VarintType); err != nil {
			return err
		}
		m.ClientFrame = f.int()
	}
	return nil
}

// Pong answers a Ping.
type Pong struct {
	ClientFrame int64
	ServerFrame int64
}

func (*Pong) Kind() Kind { return KindPong }

func (m *Pong) appendBody(b []byte) []byte {
	b = appendInt(b, 1, m.ClientFrame)
	return appendInt(b, 2, m.ServerFrame)
}

func (m *Pong) decodeBody(fs []field) error {
	for _, f := range fs {
		if f.num != 1 && f.num != 2 {
			continue
		}
		if err := expect(f, protowire.VarintType); err != nil {
			return err
		}
		if f.num == 1 {
			m.ClientFrame = f.int()
		} else {
			m.ServerFrame = f.int()
		}
	}
	return nil
}
