package world

import (
	"math"

	"github.com/JoshuaDoes/logger"
	"github.com/pkg/errors"

	"assaultwing/wire"
)

var log = logger.NewLogger("aw:world", 2)

var ErrUnknownGob = errors.New("unknown gob")

type EffectKind uint8

const (
	EffectExplosion EffectKind = iota
)

// Effect is a follow-up of destroying a gob. The caller of Destroy decides
// when to process it.
type Effect struct {
	Kind  EffectKind
	Pos   Vector
	Move  Vector
	Count int
}

// World owns every gob of one peer. It is mutated only from the frame loop.
type World struct {
	Config
	Registry *Registry
	Session  *Session
	Arena    Arena

	Frame       int64
	Players     map[int8]*Player
	LocalPlayer int8

	gobs []*Gob
	byID map[ID]*Gob

	created   []*Gob
	destroyed []*Gob
	holes     []*wire.HoleUpdate
}

func NewWorld(c Config, r *Registry) *World {
	w := &World{
		Config:      c,
		Registry:    r,
		Players:     make(map[int8]*Player),
		LocalPlayer: NoOwner,
	}
	w.Reset(NewSession(0, c.FullUpdateInterval))
	return w
}

// Reset empties the world for a new arena session. Players stay but lose
// their ships.
func (w *World) Reset(s *Session) {
	w.Session = s
	w.gobs = nil
	w.byID = make(map[ID]*Gob)
	w.created = nil
	w.destroyed = nil
	w.holes = nil
	for _, p := range w.Players {
		p.Ship = NoID
		p.RespawnAt = w.Frame
	}
}

func (w *World) serializer(t *PoseTable) *Serializer {
	return &Serializer{
		Codec:     PoseCodec{Bounds: w.Bounds},
		Poses:     t,
		Frame:     w.Frame,
		Step:      w.Step,
		Dt:        w.Dt,
		Smoothing: w.Smoothing,
	}
}

// Spawn creates a gob of the named template with a fresh identity. The
// caller sets its pose before the frame ends.
func (w *World) Spawn(name string, relevant bool) (*Gob, error) {
	g, err := w.Registry.New(name)
	if err != nil {
		return nil, err
	}
	id, err := w.Session.IDs.Allocate(relevant)
	if err != nil {
		return nil, err
	}
	g.ID = id
	g.Relevant = relevant
	g.Born = w.Frame
	g.LastUpdate = w.Frame
	w.insert(g)
	if relevant && w.Authoritative {
		w.created = append(w.created, g)
	}
	return g, nil
}

// Insert adds a gob created elsewhere, such as one received from the server.
func (w *World) Insert(g *Gob) error {
	if _, ok := w.byID[g.ID]; ok {
		return errors.Errorf("gob %d already exists", g.ID)
	}
	g.Born = w.Frame
	w.insert(g)
	return nil
}

func (w *World) insert(g *Gob) {
	w.gobs = append(w.gobs, g)
	w.byID[g.ID] = g
}

func (w *World) Gob(id ID) (*Gob, bool) {
	g, ok := w.byID[id]
	return g, ok
}

// Gobs returns the live gobs in creation order. The slice must not be
// modified.
func (w *World) Gobs() []*Gob {
	return w.gobs
}

func (w *World) Len() int {
	return len(w.gobs)
}

// Destroy removes g from the world and returns the effects its death
// causes. Relevant gobs destroyed on the authoritative side keep their
// identity until the deletion has been sent.
func (w *World) Destroy(g *Gob) []Effect {
	if g.Dead {
		return nil
	}
	g.Dead = true
	delete(w.byID, g.ID)
	for i, o := range w.gobs {
		if o == g {
			w.gobs = append(w.gobs[:i], w.gobs[i+1:]...)
			break
		}
	}

	switch {
	case !g.Relevant:
		w.Session.IDs.Reclaim(g.ID)
	case w.Authoritative:
		w.destroyed = append(w.destroyed, g)
	default:
		w.Session.Received.Forget(g.ID)
	}

	if p, ok := w.Players[g.Owner]; ok && p.Ship == g.ID && g.Kind == KindShip {
		p.Ship = NoID
		p.Deaths++
		p.RespawnAt = w.Frame + int64(w.RespawnFrames)
	}

	switch g.Kind {
	case KindShip:
		return []Effect{{Kind: EffectExplosion, Pos: g.Pos, Move: g.Move.Scale(0.5), Count: 12}}
	case KindBullet:
		return []Effect{{Kind: EffectExplosion, Pos: g.Pos, Count: 3}}
	case KindWall:
		return []Effect{{Kind: EffectExplosion, Pos: g.Pos, Count: 8}}
	}
	return nil
}

// Process carries out effects on this peer. Every peer processes the same
// effects, so the gobs they spawn are irrelevant.
func (w *World) Process(effects []Effect) error {
	for _, e := range effects {
		switch e.Kind {
		case EffectExplosion:
			for i := 0; i < e.Count; i++ {
				g, err := w.Spawn("spark", false)
				if err != nil {
					return errors.Wrap(err, "spawning explosion")
				}
				angle := float64(i) * 2 * math.Pi / float64(e.Count)
				g.Pos = e.Pos
				g.Rotation = angle
				g.Move = e.Move.Add(FromAngle(angle).Scale(120))
			}
		}
	}
	return nil
}

// Update advances the world by one frame.
func (w *World) Update() error {
	w.Frame++
	var effects []Effect
	if w.Authoritative {
		fx, err := w.applyRules()
		if err != nil {
			return err
		}
		effects = append(effects, fx...)
	}

	for _, g := range append([]*Gob(nil), w.gobs...) {
		if g.Dead {
			continue
		}
		if g.Movable {
			g.Pose = w.Step(g.Pose, w.Dt)
		}
		DampOffsets(g, w.Smoothing)
		if g.expired(w.Frame) && (!g.Relevant || w.Authoritative) {
			effects = append(effects, w.Destroy(g)...)
		}
	}
	return w.Process(effects)
}

// TakeCreated returns and clears the relevant gobs created since the last
// call.
func (w *World) TakeCreated() []*Gob {
	c := w.created
	w.created = nil
	return c
}

// TakeDestroyed returns and clears the relevant gobs destroyed since the
// last call. The caller reclaims their identities.
func (w *World) TakeDestroyed() []*Gob {
	d := w.destroyed
	w.destroyed = nil
	return d
}

// TakeHoles returns and clears the wall hole updates since the last call.
func (w *World) TakeHoles() []*wire.HoleUpdate {
	h := w.holes
	w.holes = nil
	return h
}
