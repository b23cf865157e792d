package world

import (
	"math"
	"testing"
)

func TestExtrapolateMatchesLiveStepping(t *testing.T) {
	p := Pose{Pos: Vector{X: 10, Y: 20}, Move: Vector{X: 60, Y: -30}}
	live := p
	for i := 0; i < 10; i++ {
		live = Kinematic(live, 1.0/60)
	}
	if got := Extrapolate(Kinematic, p, 10, 1.0/60); got != live {
		t.Fatalf("Extrapolate = %+v, want %+v", got, live)
	}
	if got := Extrapolate(Kinematic, p, 0, 1.0/60); got != p {
		t.Fatalf("Extrapolate over zero frames = %+v, want %+v", got, p)
	}
}

func TestDampOffsetsConverges(t *testing.T) {
	s := testConfig().Smoothing
	g := &Gob{DrawPosOffset: Vector{X: 40, Y: 0}, DrawRotationOffset: 1}
	prev := g.DrawPosOffset.X
	for i := 0; i < 200 && g.DrawPosOffset.X != 0; i++ {
		DampOffsets(g, s)
		if g.DrawPosOffset.X < 0 || g.DrawPosOffset.X >= prev {
			t.Fatalf("step %d: offset %v after %v", i, g.DrawPosOffset.X, prev)
		}
		prev = g.DrawPosOffset.X
	}
	if g.DrawPosOffset != (Vector{}) || g.DrawRotationOffset != 0 {
		t.Fatalf("offsets never given up: %v, %v", g.DrawPosOffset, g.DrawRotationOffset)
	}
}

func TestDampLargeOffsetsShrinkFasterInAbsoluteTerms(t *testing.T) {
	const cutoff = 50
	big := 40 - damp(40, cutoff)
	small := 1 - damp(1, cutoff)
	if big <= small {
		t.Fatalf("large offset lost %v, small offset %v", big, small)
	}
	if small/1 <= big/40 {
		t.Fatalf("small offset lost a smaller fraction (%v) than the large one (%v)", small, big/40)
	}
}

func TestOffsetsResetOnNaNAndCutoff(t *testing.T) {
	s := testConfig().Smoothing
	g := &Gob{DrawPosOffset: Vector{X: math.NaN()}, DrawRotationOffset: math.NaN()}
	DampOffsets(g, s)
	if g.DrawPosOffset != (Vector{}) || g.DrawRotationOffset != 0 {
		t.Fatalf("NaN offsets survived: %v, %v", g.DrawPosOffset, g.DrawRotationOffset)
	}

	g = &Gob{}
	g.Pos = Vector{X: 1000}
	absorbCorrection(g, Pose{Pos: Vector{X: 0}}, s)
	if g.DrawPosOffset != (Vector{}) {
		t.Fatalf("jump beyond the cutoff kept offset %v", g.DrawPosOffset)
	}
}

func TestAbsorbCorrectionTakesShortestTurn(t *testing.T) {
	s := testConfig().Smoothing
	g := &Gob{}
	g.Rotation = 0.1
	absorbCorrection(g, Pose{Rotation: 2*math.Pi - 0.1}, s)
	if math.Abs(g.DrawRotationOffset+0.2) > 1e-9 {
		t.Fatalf("DrawRotationOffset = %v, want -0.2", g.DrawRotationOffset)
	}
}
