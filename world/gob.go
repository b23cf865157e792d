package world

import "fmt"

type Kind uint8

const (
	KindShip Kind = iota
	KindBullet
	KindWall
	KindParticle
)

func (k Kind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindBullet:
		return "bullet"
	case KindWall:
		return "wall"
	case KindParticle:
		return "particle"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// NoOwner marks a gob that belongs to no player.
const NoOwner int8 = -1

// Gob is a simulated game object.
type Gob struct {
	*Template

	ID       ID
	StaticID ID
	Owner    int8
	Layer    int
	Relevant bool

	Pose
	Damage float64

	// LastUpdate is the frame the gob was last sent to clients.
	LastUpdate   int64
	ForcedUpdate bool

	DrawPosOffset      Vector
	DrawRotationOffset float64

	Born     int64
	ReloadAt int64
	Dead     bool

	Wall *Wall
}

func (g *Gob) String() string {
	return fmt.Sprintf("%s#%d", g.Name, g.ID)
}

// DrawPos is where the gob is shown, including the smoothing offset.
func (g *Gob) DrawPos() Vector {
	return g.Pos.Add(g.DrawPosOffset)
}

func (g *Gob) DrawRotation() float64 {
	return g.Rotation + g.DrawRotationOffset
}

// Inflict adds damage and schedules a network update. It reports whether
// the gob has taken its maximum damage.
func (g *Gob) Inflict(damage float64) bool {
	if !g.Damageable {
		return false
	}
	g.Damage += damage
	if g.Damage > g.MaxDamage {
		g.Damage = g.MaxDamage
	}
	g.ForcedUpdate = true
	return g.Damage >= g.MaxDamage
}

func (g *Gob) expired(frame int64) bool {
	return g.Lifetime > 0 && frame-g.Born >= int64(g.Lifetime)
}
