package world

import (
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"assaultwing/wire"
)

const (
	rotationSteps  = 128
	fullUpdateFlag = 0x80

	// Delta positions are 8 bits per axis at 1/8 unit resolution.
	deltaStep = 1.0 / 8
	deltaMin  = -16.0
	deltaMax  = deltaMin + 255*deltaStep
)

// Pose is the part of a gob that changes every simulated step.
type Pose struct {
	Pos      Vector
	Move     Vector
	Rotation float64
}

// Bounds is the arena coordinate range shared by every peer. Full position
// updates are normalized over it.
type Bounds struct {
	Min, Max float64
}

func (b Bounds) Contains(v Vector) bool {
	return v.X >= b.Min && v.X <= b.Max && v.Y >= b.Min && v.Y <= b.Max
}

func (b Bounds) span() float64 {
	return b.Max - b.Min
}

type poseEntry struct {
	pos     Vector
	fullDue int64
}

// PoseTable remembers, per gob, the last position sent to (or received from)
// one class of connections, plus the frame at which the next full update is
// due. Both sides store the decoded value so deltas chain identically.
type PoseTable struct {
	entries  map[ID]*poseEntry
	interval int64
}

func NewPoseTable(fullUpdateInterval int64) *PoseTable {
	return &PoseTable{
		entries:  make(map[ID]*poseEntry),
		interval: fullUpdateInterval,
	}
}

func (t *PoseTable) Last(id ID) (Vector, bool) {
	e, ok := t.entries[id]
	if !ok {
		return Vector{}, false
	}
	return e.pos, true
}

func (t *PoseTable) Forget(id ID) {
	delete(t.entries, id)
}

// Invalidate drops every entry so the next update of each gob is full.
func (t *PoseTable) Invalidate() {
	t.entries = make(map[ID]*poseEntry)
}

func (t *PoseTable) Len() int {
	return len(t.entries)
}

// PoseCodec quantizes poses for the varying segment.
type PoseCodec struct {
	Bounds Bounds
}

func (c PoseCodec) normalize16(v float64) uint16 {
	q := math.Round((v - c.Bounds.Min) / c.Bounds.span() * math.MaxUint16)
	return uint16(math.Max(0, math.Min(math.MaxUint16, q)))
}

func (c PoseCodec) denormalize16(q uint16) float64 {
	return c.Bounds.Min + float64(q)/math.MaxUint16*c.Bounds.span()
}

// quantizeDelta reports false when d cannot be expressed as a delta.
func quantizeDelta(d float64) (byte, bool) {
	if math.IsNaN(d) || d < deltaMin || d > deltaMax {
		return 0, false
	}
	return byte(math.Round((d - deltaMin) / deltaStep)), true
}

func dequantizeDelta(q byte) float64 {
	return deltaMin + float64(q)*deltaStep
}

func quantizeRotation(rot float64) byte {
	rot = math.Mod(rot, 2*math.Pi)
	if rot < 0 {
		rot += 2 * math.Pi
	}
	return byte(int(math.Round(rot/(2*math.Pi)*rotationSteps)) & 0x7f)
}

func dequantizeRotation(q byte) float64 {
	return float64(q&0x7f) * 2 * math.Pi / rotationSteps
}

func half(v float64) uint16 {
	return float16.Fromfloat32(float32(v)).Bits()
}

func unhalf(b uint16) float64 {
	return float64(float16.Frombits(b).Float32())
}

// Encode writes p and records what the receiver will decode in t. A full
// update is written when t has no entry for id, when the entry's resync
// deadline has passed, or when the displacement does not fit a delta.
func (c PoseCodec) Encode(w *segmentWriter, id ID, p Pose, t *PoseTable, frame int64) {
	rot := quantizeRotation(p.Rotation)
	e, ok := t.entries[id]
	full := !ok || frame >= e.fullDue
	var dx, dy byte
	if !full {
		var okX, okY bool
		dx, okX = quantizeDelta(p.Pos.X - e.pos.X)
		dy, okY = quantizeDelta(p.Pos.Y - e.pos.Y)
		full = !okX || !okY
	}
	if full {
		qx, qy := c.normalize16(p.Pos.X), c.normalize16(p.Pos.Y)
		w.byte(rot | fullUpdateFlag)
		w.u16(qx, qy)
		t.entries[id] = &poseEntry{
			pos:     Vector{X: c.denormalize16(qx), Y: c.denormalize16(qy)},
			fullDue: frame + t.interval,
		}
	} else {
		w.byte(rot, dx, dy)
		e.pos = e.pos.Add(Vector{X: dequantizeDelta(dx), Y: dequantizeDelta(dy)})
	}
	w.u16(half(p.Move.X), half(p.Move.Y))
}

// Decode reads a pose written by Encode and refreshes t.
func (c PoseCodec) Decode(r *segmentReader, id ID, t *PoseTable) (Pose, error) {
	var p Pose
	rot, err := r.byte()
	if err != nil {
		return p, err
	}
	p.Rotation = dequantizeRotation(rot)
	if rot&fullUpdateFlag != 0 {
		q, err := r.u16(2)
		if err != nil {
			return p, err
		}
		p.Pos = Vector{X: c.denormalize16(q[0]), Y: c.denormalize16(q[1])}
		t.entries[id] = &poseEntry{pos: p.Pos}
	} else {
		e, ok := t.entries[id]
		if !ok {
			return p, errors.Wrapf(wire.ErrCorrupt, "delta update for gob %d without a base position", id)
		}
		dx, err := r.byte()
		if err != nil {
			return p, err
		}
		dy, err := r.byte()
		if err != nil {
			return p, err
		}
		e.pos = e.pos.Add(Vector{X: dequantizeDelta(dx), Y: dequantizeDelta(dy)})
		p.Pos = e.pos
	}
	m, err := r.u16(2)
	if err != nil {
		return p, err
	}
	p.Move = Vector{X: unhalf(m[0]), Y: unhalf(m[1])}
	return p, nil
}
