package world

import (
	"assaultwing/wire"
)

// Replicator turns the changes of an authoritative world into the
// messages every client receives.
type Replicator struct {
	w *World
}

func NewReplicator(w *World) *Replicator {
	return &Replicator{w: w}
}

// Frame collects the messages for the frame just simulated, in the order
// they must be delivered: creations, updates, wall holes, deletions.
// Identities of deleted gobs are reclaimed once their deletion is queued.
func (r *Replicator) Frame() []wire.Message {
	w := r.w
	s := w.serializer(w.Session.Sent)
	var msgs []wire.Message

	created := w.TakeCreated()
	if len(created) > 0 {
		c := &wire.Creation{Frame: w.Frame}
		for _, g := range created {
			c.Entries = append(c.Entries, r.creationEntry(s, g))
			g.LastUpdate = w.Frame
			g.ForcedUpdate = false
		}
		msgs = append(msgs, c)
	}

	u := &wire.Update{Frame: w.Frame}
	for _, g := range w.gobs {
		if !g.Relevant || !r.due(g) {
			continue
		}
		u.Entries = append(u.Entries, wire.UpdateEntry{
			ID:      int16(g.ID),
			Varying: s.Serialize(g, ModeVarying),
		})
		g.LastUpdate = w.Frame
		g.ForcedUpdate = false
	}
	if len(u.Entries) > 0 {
		msgs = append(msgs, u)
	}

	for _, h := range w.TakeHoles() {
		msgs = append(msgs, h)
	}

	for _, g := range w.TakeDestroyed() {
		msgs = append(msgs, &wire.Deletion{Frame: w.Frame, ID: int16(g.ID)})
		w.Session.Sent.Forget(g.ID)
		w.Session.IDs.Reclaim(g.ID)
	}
	return msgs
}

func (r *Replicator) due(g *Gob) bool {
	if g.ForcedUpdate {
		return true
	}
	if !g.Movable || g.UpdatePeriod == 0 {
		return false
	}
	return r.w.Frame-g.LastUpdate >= int64(g.UpdatePeriod)
}

func (r *Replicator) creationEntry(s *Serializer, g *Gob) wire.CreationEntry {
	return wire.CreationEntry{
		TypeName: g.Name,
		Layer:    g.Layer,
		Constant: s.Serialize(g, ModeConstant),
		Varying:  s.Serialize(g, ModeVarying),
	}
}

// Snapshot describes every live relevant gob for a client joining mid
// arena. Poses are written in full and not recorded; the shared table is
// invalidated so every gob's next update is full for all clients.
func (r *Replicator) Snapshot() *wire.Creation {
	w := r.w
	s := w.serializer(NewPoseTable(w.FullUpdateInterval))
	c := &wire.Creation{Frame: w.Frame}
	for _, g := range w.gobs {
		if g.Relevant {
			c.Entries = append(c.Entries, r.creationEntry(s, g))
		}
	}
	w.Session.Sent.Invalidate()
	return c
}

// SessionStart announces the current arena session and its players.
func (r *Replicator) SessionStart(local int8) *wire.SessionStart {
	w := r.w
	players := w.PlayerList()
	m := &wire.SessionStart{
		ArenaSeq:    w.Session.ArenaSeq,
		Arena:       w.Arena.Name,
		PlayerCount: len(players),
		LocalPlayer: local,
	}
	for _, p := range players {
		m.Players = append(m.Players, p.Serialize())
	}
	return m
}
