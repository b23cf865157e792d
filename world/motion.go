package world

import "math"

// StepFunc advances a pose by dt seconds. The live simulation and the
// extrapolation of received poses use the same function.
type StepFunc func(p Pose, dt float64) Pose

// Kinematic moves a pose along its velocity.
func Kinematic(p Pose, dt float64) Pose {
	p.Pos = p.Pos.Add(p.Move.Scale(dt))
	return p
}

// Extrapolate replays frames steps of motion on a pose that is frames old.
// Collisions during the skipped interval are not replayed.
func Extrapolate(step StepFunc, p Pose, frames int, dt float64) Pose {
	for i := 0; i < frames; i++ {
		p = step(p, dt)
	}
	return p
}

// Smoothing controls how the visible pose eases into a corrected pose.
type Smoothing struct {
	PosCutoff      float64
	RotationCutoff float64
	GiveUp         float64
}

// damp shrinks x along a quadratic curve: large values lose a roughly
// constant amount per call, small values a shrinking fraction.
func damp(x, cutoff float64) float64 {
	a := math.Abs(x) / cutoff
	return math.Copysign(cutoff*((a+3)*(a+3)-9)/8, x)
}

// DampOffsets eases a gob's draw offsets one frame toward zero.
func DampOffsets(g *Gob, s Smoothing) {
	if l := g.DrawPosOffset.Length(); math.IsNaN(l) || l < s.GiveUp || l > s.PosCutoff {
		g.DrawPosOffset = Vector{}
	} else {
		g.DrawPosOffset = g.DrawPosOffset.Scale(damp(l, s.PosCutoff) / l)
	}
	r := g.DrawRotationOffset
	if math.IsNaN(r) || math.Abs(r) < s.GiveUp || math.Abs(r) > s.RotationCutoff {
		g.DrawRotationOffset = 0
	} else {
		g.DrawRotationOffset = damp(r, s.RotationCutoff)
	}
}

// angleDiff returns the signed angle from b to a in (-π, π].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// absorbCorrection folds the jump from old to the new pose into the draw
// offsets so the gob is drawn where it was and eases toward the new pose.
func absorbCorrection(g *Gob, old Pose, s Smoothing) {
	g.DrawPosOffset = g.DrawPosOffset.Add(old.Pos.Sub(g.Pos))
	if g.DrawPosOffset.IsNaN() || g.DrawPosOffset.Length() > s.PosCutoff {
		g.DrawPosOffset = Vector{}
	}
	g.DrawRotationOffset += angleDiff(old.Rotation, g.Rotation)
	if math.IsNaN(g.DrawRotationOffset) || math.Abs(g.DrawRotationOffset) > s.RotationCutoff {
		g.DrawRotationOffset = 0
	}
}
