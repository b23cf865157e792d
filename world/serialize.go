package world

import (
	"math"

	"github.com/pkg/errors"

	"assaultwing/wire"
)

// Mode selects the segments of a gob to serialize.
type Mode uint8

const (
	// ModeConstant covers state fixed at creation: identity and owner.
	ModeConstant Mode = 1 << iota
	// ModeVarying covers pose and damage.
	ModeVarying
)

const flagStaticID = 0x01

// Serializer converts gobs to and from their wire segments. Poses is the
// table of the connection class being written to or read from.
type Serializer struct {
	Codec     PoseCodec
	Poses     *PoseTable
	Frame     int64
	Step      StepFunc
	Dt        float64
	Smoothing Smoothing
}

func (s *Serializer) Serialize(g *Gob, mode Mode) []byte {
	w := newSegmentWriter()
	if mode&ModeConstant != 0 {
		writeConstant(w, g)
	}
	if mode&ModeVarying != 0 {
		s.Codec.Encode(w, g.ID, g.Pose, s.Poses, s.Frame)
		if g.Damageable {
			w.byte(byte(math.Round(g.Damage / g.MaxDamage * math.MaxUint8)))
		}
	}
	return w.bytes()
}

func writeConstant(w *segmentWriter, g *Gob) {
	w.u16(uint16(g.ID))
	if g.StaticID != NoID {
		w.byte(flagStaticID)
		w.u16(uint16(g.StaticID))
	} else {
		w.byte(0)
	}
	w.byte(byte(g.Owner))

	switch g.Kind {
	case KindWall:
		m := g.Wall.Mesh
		w.u16(uint16(len(m.Vertices)))
		for _, v := range m.Vertices {
			w.f32(float32(v.X), float32(v.Y))
		}
		w.u16(uint16(len(m.Triangles)))
		for _, t := range m.Triangles {
			w.u16(uint16(t[0]), uint16(t[1]), uint16(t[2]))
		}
	}
}

// Patch is decoded gob state waiting to be applied.
type Patch struct {
	mode      Mode
	id        ID
	staticID  ID
	owner     int8
	mesh      *Mesh
	pose      Pose
	damage    float64
	hasDamage bool
	smoothing Smoothing
}

// Deserialize decodes the segments of g in data. A varying segment is
// extrapolated framesAgo frames forward before it is returned.
func (s *Serializer) Deserialize(data []byte, mode Mode, g *Gob, framesAgo int) (*Patch, error) {
	r := newSegmentReader(data)
	p := &Patch{mode: mode, id: g.ID, smoothing: s.Smoothing}
	if mode&ModeConstant != 0 {
		if err := readConstant(r, g, p); err != nil {
			return nil, errors.Wrapf(err, "constant segment of %s", g.Name)
		}
	}
	if mode&ModeVarying != 0 {
		pose, err := s.Codec.Decode(r, p.id, s.Poses)
		if err != nil {
			return nil, errors.Wrapf(err, "varying segment of %s#%d", g.Name, p.id)
		}
		if g.Movable && framesAgo > 0 {
			pose = Extrapolate(s.Step, pose, framesAgo, s.Dt)
		}
		p.pose = pose
		if g.Damageable {
			d, err := r.byte()
			if err != nil {
				return nil, errors.Wrapf(err, "damage of %s#%d", g.Name, p.id)
			}
			p.damage = float64(d) / math.MaxUint8 * g.MaxDamage
			p.hasDamage = true
		}
	}
	if n := r.remaining(); n != 0 {
		return nil, errors.Wrapf(wire.ErrCorrupt, "%d trailing bytes after %s", n, g.Name)
	}
	return p, nil
}

func readConstant(r *segmentReader, g *Gob, p *Patch) error {
	id, err := r.u16(1)
	if err != nil {
		return err
	}
	p.id = ID(int16(id[0]))
	flags, err := r.byte()
	if err != nil {
		return err
	}
	if flags&flagStaticID != 0 {
		sid, err := r.u16(1)
		if err != nil {
			return err
		}
		p.staticID = ID(int16(sid[0]))
	}
	owner, err := r.byte()
	if err != nil {
		return err
	}
	p.owner = int8(owner)

	switch g.Kind {
	case KindWall:
		m, err := readMesh(r)
		if err != nil {
			return err
		}
		p.mesh = m
	}
	return nil
}

func readMesh(r *segmentReader) (*Mesh, error) {
	nv, err := r.u16(1)
	if err != nil {
		return nil, err
	}
	coords, err := r.f32(2 * int(nv[0]))
	if err != nil {
		return nil, err
	}
	m := &Mesh{Vertices: make([]Vector, nv[0])}
	for i := range m.Vertices {
		m.Vertices[i] = Vector{X: float64(coords[2*i]), Y: float64(coords[2*i+1])}
	}
	nt, err := r.u16(1)
	if err != nil {
		return nil, err
	}
	idx, err := r.u16(3 * int(nt[0]))
	if err != nil {
		return nil, err
	}
	m.Triangles = make([][3]int, nt[0])
	for i := range m.Triangles {
		t := [3]int{int(idx[3*i]), int(idx[3*i+1]), int(idx[3*i+2])}
		for _, v := range t {
			if v >= len(m.Vertices) {
				return nil, errors.Wrapf(wire.ErrCorrupt, "triangle %d references vertex %d of %d", i, v, len(m.Vertices))
			}
		}
		m.Triangles[i] = t
	}
	return m, nil
}

// Apply writes the patch into g. A varying-only patch moves g to the new
// pose and leaves the visible pose where it was, to be eased in by
// DampOffsets.
func (p *Patch) Apply(g *Gob) {
	if p.mode&ModeConstant != 0 {
		g.ID = p.id
		g.StaticID = p.staticID
		g.Owner = p.owner
		if p.mesh != nil {
			g.Wall = NewWall(*p.mesh)
			g.Pos = p.mesh.center()
		}
	}
	if p.mode&ModeVarying != 0 {
		old := g.Pose
		g.Pose = p.pose
		if p.mode == ModeVarying {
			absorbCorrection(g, old, p.smoothing)
		}
		if p.hasDamage {
			g.Damage = p.damage
		}
	}
}
