package world

import (
	"github.com/pkg/errors"
)

var ErrUnknownTemplate = errors.New("unknown gob template")

// Template holds the type parameters shared by every gob of one type.
type Template struct {
	Name  string
	Kind  Kind
	Layer int

	Movable    bool
	Damageable bool
	MaxDamage  float64
	Radius     float64

	// UpdatePeriod is the number of frames between network updates;
	// zero means the gob is never updated periodically.
	UpdatePeriod int
	// Lifetime in frames, zero for no limit.
	Lifetime int

	Thrust       float64
	TurnSpeed    float64
	MaxSpeed     float64
	ReloadFrames int
	Gun          string

	BulletSpeed float64
	HitDamage   float64
	HoleRadius  float64
}

// Registry maps template names to templates. It is built once at startup
// and shared by every peer.
type Registry struct {
	templates map[string]*Template
}

func NewRegistry(templates ...Template) *Registry {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for i := range templates {
		t := templates[i]
		r.templates[t.Name] = &t
	}
	return r
}

func DefaultRegistry() *Registry {
	return NewRegistry(
		Template{
			Name:         "windlord",
			Kind:         KindShip,
			Layer:        1,
			Movable:      true,
			Damageable:   true,
			MaxDamage:    100,
			Radius:       14,
			UpdatePeriod: 3,
			Thrust:       300,
			TurnSpeed:    4,
			MaxSpeed:     400,
			ReloadFrames: 12,
			Gun:          "bullet",
		},
		Template{
			Name:         "bravery",
			Kind:         KindShip,
			Layer:        1,
			Movable:      true,
			Damageable:   true,
			MaxDamage:    160,
			Radius:       18,
			UpdatePeriod: 3,
			Thrust:       220,
			TurnSpeed:    3,
			MaxSpeed:     320,
			ReloadFrames: 20,
			Gun:          "bullet",
		},
		Template{
			Name:        "bullet",
			Kind:        KindBullet,
			Layer:       1,
			Movable:     true,
			Radius:      2,
			Lifetime:    120,
			BulletSpeed: 600,
			HitDamage:   20,
			HoleRadius:  12,
		},
		Template{
			Name:  "wall",
			Kind:  KindWall,
			Layer: 0,
		},
		Template{
			Name:     "spark",
			Kind:     KindParticle,
			Layer:    2,
			Movable:  true,
			Lifetime: 30,
		},
	)
}

func (r *Registry) Lookup(name string) (*Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTemplate, "%q", name)
	}
	return t, nil
}

// New instantiates a gob of the named template with default state.
func (r *Registry) New(name string) (*Gob, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Gob{
		Template: t,
		Owner:    NoOwner,
		Layer:    t.Layer,
	}, nil
}
