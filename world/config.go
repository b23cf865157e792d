package world

import (
	"assaultwing/utils"
)

// Config holds the simulation parameters every peer must agree on.
type Config struct {
	Bounds             Bounds
	Dt                 float64
	Step               StepFunc
	Smoothing          Smoothing
	FullUpdateInterval int64
	RespawnFrames      int
	// Authoritative worlds run the game rules and decide what is created
	// and destroyed; the others only follow the server.
	Authoritative bool
}

func ConfigFromTOML(c *utils.Config, authoritative bool) Config {
	return Config{
		Bounds:             Bounds{Min: c.Arena.Min, Max: c.Arena.Max},
		Dt:                 1 / float64(c.Net.TickRate),
		Step:               Kinematic,
		FullUpdateInterval: int64(c.Net.FullUpdateInterval),
		RespawnFrames:      c.Arena.RespawnFPS,
		Smoothing: Smoothing{
			PosCutoff:      c.Smoothing.PosCutoff,
			RotationCutoff: c.Smoothing.RotationCutoff,
			GiveUp:         c.Smoothing.GiveUp,
		},
		Authoritative: authoritative,
	}
}
