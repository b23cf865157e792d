package world

import (
	"github.com/segmentio/ksuid"
)

// Session is the state scoped to one arena: identity pools and pose
// tables. A new session is created at every arena start so nothing leaks
// across arena boundaries.
type Session struct {
	ID       ksuid.KSUID
	ArenaSeq int
	IDs      *Identities

	// Sent holds what the server last sent to its clients, Received what a
	// client last received from the server.
	Sent     *PoseTable
	Received *PoseTable
}

func NewSession(arenaSeq int, fullUpdateInterval int64) *Session {
	return &Session{
		ID:       ksuid.New(),
		ArenaSeq: arenaSeq,
		IDs:      NewIdentities(),
		Sent:     NewPoseTable(fullUpdateInterval),
		Received: NewPoseTable(fullUpdateInterval),
	}
}
