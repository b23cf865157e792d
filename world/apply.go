package world

import (
	"github.com/pkg/errors"

	"assaultwing/wire"
)

// Applier applies server messages to a client world. Errors wrapping
// wire.ErrCorrupt are fatal to the connection; ErrUnknownGob errors are
// expected races and only worth logging.
type Applier struct {
	w     *World
	Clock LagClock
}

func NewApplier(w *World) *Applier {
	return &Applier{w: w}
}

func (a *Applier) framesAgo(frame int64) int {
	return a.Clock.FramesAgo(frame, a.w.Frame)
}

func (a *Applier) Apply(m wire.Message) error {
	switch m := m.(type) {
	case *wire.SessionStart:
		return a.sessionStart(m)
	case *wire.Creation:
		return a.creation(m)
	case *wire.Update:
		return a.update(m)
	case *wire.Deletion:
		return a.deletion(m)
	case *wire.HoleUpdate:
		return a.holeUpdate(m)
	case *wire.Pong:
		a.Clock.Observe(m, a.w.Frame)
		return nil
	}
	return errors.Wrapf(wire.ErrCorrupt, "unexpected %s message from server", m.Kind())
}

func (a *Applier) sessionStart(m *wire.SessionStart) error {
	if len(m.Players) != m.PlayerCount {
		return errors.Wrapf(wire.ErrCorrupt, "session start lists %d of %d players", len(m.Players), m.PlayerCount)
	}
	players := make(map[int8]*Player, len(m.Players))
	for _, b := range m.Players {
		p, err := DeserializePlayer(b)
		if err != nil {
			return errors.Wrap(err, "session start")
		}
		players[p.ID] = p
	}
	a.w.Players = players
	a.w.LocalPlayer = m.LocalPlayer
	a.w.Reset(NewSession(m.ArenaSeq, a.w.FullUpdateInterval))
	a.w.Arena = Arena{Name: m.Arena, Bounds: a.w.Bounds}
	log.Info("arena ", m.Arena, " #", m.ArenaSeq, " started with ", len(players), " players")
	return nil
}

func (a *Applier) creation(m *wire.Creation) error {
	s := a.w.serializer(a.w.Session.Received)
	ago := a.framesAgo(m.Frame)
	for _, e := range m.Entries {
		g, err := a.w.Registry.New(e.TypeName)
		if err != nil {
			log.Error("dropping created gob: ", err)
			continue
		}
		constant, err := s.Deserialize(e.Constant, ModeConstant, g, 0)
		if err != nil {
			return errors.Wrap(err, "creation")
		}
		constant.Apply(g)
		if old, ok := a.w.Gob(g.ID); ok {
			log.Warn("gob ", g.ID, " created twice, replacing ", old)
			a.w.Destroy(old)
		}
		varying, err := s.Deserialize(e.Varying, ModeVarying, g, ago)
		if err != nil {
			return errors.Wrap(err, "creation")
		}
		varying.Apply(g)
		g.Layer = e.Layer
		g.Relevant = true
		g.LastUpdate = a.w.Frame
		if err := a.w.Insert(g); err != nil {
			return err
		}
		if p, ok := a.w.Players[g.Owner]; ok && g.Kind == KindShip {
			p.Ship = g.ID
		}
	}
	return nil
}

func (a *Applier) update(m *wire.Update) error {
	s := a.w.serializer(a.w.Session.Received)
	ago := a.framesAgo(m.Frame)
	var missing []int16
	for _, e := range m.Entries {
		g, ok := a.w.Gob(ID(e.ID))
		if !ok {
			missing = append(missing, e.ID)
			continue
		}
		p, err := s.Deserialize(e.Varying, ModeVarying, g, ago)
		if err != nil {
			return errors.Wrap(err, "update")
		}
		p.Apply(g)
		g.LastUpdate = a.w.Frame
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrUnknownGob, "update for %v", missing)
	}
	return nil
}

func (a *Applier) deletion(m *wire.Deletion) error {
	g, ok := a.w.Gob(ID(m.ID))
	if !ok {
		return errors.Wrapf(ErrUnknownGob, "deletion of %d", m.ID)
	}
	return a.w.Process(a.w.Destroy(g))
}

func (a *Applier) holeUpdate(m *wire.HoleUpdate) error {
	g, ok := a.w.Gob(ID(m.GobID))
	if !ok {
		return errors.Wrapf(ErrUnknownGob, "holes in %d", m.GobID)
	}
	if g.Wall == nil {
		return errors.Wrapf(wire.ErrCorrupt, "holes in %s which is not a wall", g)
	}
	return g.Wall.Retire(m.Triangles)
}
