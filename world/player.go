package world

import (
	"assaultwing/wire"
)

// Player is a participant of the game. Players without a ship type are
// spectators.
type Player struct {
	ID       int8
	Name     string
	ShipType string

	Controls  wire.Controls
	Ship      ID
	RespawnAt int64
	Kills     int
	Deaths    int
}

func (p *Player) Spectator() bool {
	return p.ShipType == ""
}

// Serialize writes the constant segment of the player.
func (p *Player) Serialize() []byte {
	w := newSegmentWriter()
	w.byte(byte(p.ID))
	w.str(p.Name)
	w.str(p.ShipType)
	return w.bytes()
}

func DeserializePlayer(b []byte) (*Player, error) {
	r := newSegmentReader(b)
	id, err := r.byte()
	if err != nil {
		return nil, err
	}
	name, err := r.str()
	if err != nil {
		return nil, err
	}
	ship, err := r.str()
	if err != nil {
		return nil, err
	}
	return &Player{ID: int8(id), Name: name, ShipType: ship}, nil
}
