package world

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"assaultwing/wire"
)

var errTooManyPlayers = errors.New("too many players")

// AddPlayer registers a player. The ship appears on the next frame.
func (w *World) AddPlayer(name, shipType string) (*Player, error) {
	for id := int8(0); id < math.MaxInt8; id++ {
		if _, taken := w.Players[id]; taken {
			continue
		}
		p := &Player{
			ID:        id,
			Name:      name,
			ShipType:  shipType,
			Ship:      NoID,
			RespawnAt: w.Frame,
		}
		w.Players[id] = p
		return p, nil
	}
	return nil, errTooManyPlayers
}

// RemovePlayer drops a player and its ship.
func (w *World) RemovePlayer(id int8) []Effect {
	p, ok := w.Players[id]
	if !ok {
		return nil
	}
	delete(w.Players, id)
	if ship, ok := w.byID[p.Ship]; ok {
		return w.Destroy(ship)
	}
	return nil
}

func (w *World) SetControls(id int8, c wire.Controls) {
	if p, ok := w.Players[id]; ok {
		p.Controls = c
	}
}

// PlayerList returns the players ordered by id.
func (w *World) PlayerList() []*Player {
	ps := make([]*Player, 0, len(w.Players))
	for _, p := range w.Players {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return ps
}

func (w *World) applyRules() ([]Effect, error) {
	for _, p := range w.PlayerList() {
		if p.Spectator() {
			continue
		}
		if p.Ship == NoID {
			if w.Frame < p.RespawnAt {
				continue
			}
			if err := w.spawnShip(p); err != nil {
				return nil, err
			}
			continue
		}
		ship, ok := w.byID[p.Ship]
		if !ok {
			p.Ship = NoID
			continue
		}
		if err := w.control(p, ship); err != nil {
			return nil, err
		}
	}
	return w.collide(), nil
}

func (w *World) spawnShip(p *Player) error {
	g, err := w.Spawn(p.ShipType, true)
	if err != nil {
		return errors.Wrapf(err, "spawning ship of %s", p.Name)
	}
	g.Owner = p.ID
	g.Pos = w.Arena.SpawnPoint(p.ID)
	g.Rotation = float64(p.ID) * 2.4
	p.Ship = g.ID
	return nil
}

func (w *World) control(p *Player, ship *Gob) error {
	c := p.Controls
	if c.Has(wire.ControlLeft) {
		ship.Rotation -= ship.TurnSpeed * w.Dt
	}
	if c.Has(wire.ControlRight) {
		ship.Rotation += ship.TurnSpeed * w.Dt
	}
	if c.Has(wire.ControlThrust) {
		ship.Move = ship.Move.Add(FromAngle(ship.Rotation).Scale(ship.Thrust * w.Dt)).Clamp(ship.MaxSpeed)
	}
	if !c.Has(wire.ControlFire) || w.Frame < ship.ReloadAt || ship.Gun == "" {
		return nil
	}
	b, err := w.Spawn(ship.Gun, true)
	if err != nil {
		return errors.Wrapf(err, "firing %s", ship)
	}
	dir := FromAngle(ship.Rotation)
	b.Owner = p.ID
	b.Rotation = ship.Rotation
	b.Pos = ship.Pos.Add(dir.Scale(ship.Radius + b.Radius + 1))
	b.Move = ship.Move.Add(dir.Scale(b.BulletSpeed))
	ship.ReloadAt = w.Frame + int64(ship.ReloadFrames)
	return nil
}

func (w *World) collide() []Effect {
	var effects []Effect
	gobs := append([]*Gob(nil), w.gobs...)
	for _, g := range gobs {
		if g.Dead {
			continue
		}
		switch g.Kind {
		case KindShip:
			if !w.Bounds.Contains(g.Pos) {
				g.Pos.X = math.Max(w.Bounds.Min, math.Min(w.Bounds.Max, g.Pos.X))
				g.Pos.Y = math.Max(w.Bounds.Min, math.Min(w.Bounds.Max, g.Pos.Y))
				g.Move = Vector{}
				g.ForcedUpdate = true
			}
		case KindBullet:
			if !w.Bounds.Contains(g.Pos) {
				effects = append(effects, w.Destroy(g)...)
				continue
			}
			if fx, hit := w.bulletHit(g, gobs); hit {
				effects = append(effects, fx...)
				effects = append(effects, w.Destroy(g)...)
			}
		}
	}
	return effects
}

func (w *World) bulletHit(b *Gob, gobs []*Gob) ([]Effect, bool) {
	for _, o := range gobs {
		if o.Dead || o == b {
			continue
		}
		switch o.Kind {
		case KindWall:
			if o.Wall.Hit(b.Pos) {
				return w.Punch(o, b.Pos, b.HoleRadius), true
			}
		case KindShip:
			if o.Owner == b.Owner {
				continue
			}
			r := o.Radius + b.Radius
			if o.Pos.Sub(b.Pos).LengthSquared() > r*r {
				continue
			}
			if !o.Inflict(b.HitDamage) {
				return nil, true
			}
			if killer, ok := w.Players[b.Owner]; ok {
				killer.Kills++
			}
			return w.Destroy(o), true
		}
	}
	return nil, false
}

// Punch makes a hole in a wall gob. Retired triangles are queued for the
// clients; a wall with nothing left is destroyed.
func (w *World) Punch(wall *Gob, pos Vector, radius float64) []Effect {
	retired := wall.Wall.MakeHole(pos, radius)
	if len(retired) == 0 {
		return nil
	}
	w.holes = append(w.holes, &wire.HoleUpdate{
		Frame:     w.Frame,
		GobID:     int16(wall.ID),
		Triangles: retired,
	})
	if wall.Wall.Remaining() == 0 {
		return w.Destroy(wall)
	}
	return nil
}
