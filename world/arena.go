package world

import (
	"github.com/pkg/errors"

	"assaultwing/utils"
)

// Arena describes the static content of a level.
type Arena struct {
	Name   string
	Bounds Bounds
	Walls  []Mesh
	Ships  string
}

func ArenaFromConfig(c utils.ArenaConfig) Arena {
	a := Arena{
		Name:   c.Name,
		Bounds: Bounds{Min: c.Min, Max: c.Max},
		Ships:  c.Ships,
	}
	for _, wc := range c.Walls {
		a.Walls = append(a.Walls, GridWall(wc.X, wc.Y, wc.W, wc.H, wc.Cell))
	}
	return a
}

// Load spawns the arena's walls. Arena-authored gobs carry a static id so
// peers can tell them from gobs created at run time.
func (a Arena) Load(w *World) error {
	w.Arena = a
	for i, m := range a.Walls {
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "wall %d of %s", i, a.Name)
		}
		g, err := w.Spawn("wall", true)
		if err != nil {
			return errors.Wrapf(err, "loading wall %d of %s", i, a.Name)
		}
		g.StaticID = ID(i + 1)
		g.Wall = NewWall(m)
		g.Pos = m.center()
	}
	log.Info("loaded arena ", a.Name, " with ", len(a.Walls), " walls")
	return nil
}

// SpawnPoint is where a player's ship appears.
func (a Arena) SpawnPoint(player int8) Vector {
	c := (a.Bounds.Min + a.Bounds.Max) / 2
	return Vector{X: c, Y: c}.Add(FromAngle(float64(player) * 2.4).Scale(900))
}
