package view

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"assaultwing/world"
)

// maxVertices keeps triangle indices within uint16.
const maxVertices = 1 << 15

// Renderer draws a world as seen from a camera position.
type Renderer struct {
	*Assets
	camera world.Vector
	width  float64
	height float64

	vertices []ebiten.Vertex
	indices  []uint16
}

func NewRenderer(a *Assets) *Renderer {
	return &Renderer{Assets: a}
}

// LookAt centers the view on pos.
func (r *Renderer) LookAt(pos world.Vector, width, height int) {
	r.camera = pos
	r.width, r.height = float64(width), float64(height)
}

func (r *Renderer) toScreen(v world.Vector) (float64, float64) {
	return v.X - r.camera.X + r.width/2, v.Y - r.camera.Y + r.height/2
}

func (r *Renderer) RenderGob(screen *ebiten.Image, g *world.Gob, local bool, owner string) {
	switch g.Kind {
	case world.KindWall:
		r.RenderWall(screen, g.Wall)
	case world.KindShip:
		image := r.Image("enemy")
		if local {
			image = r.Image("player")
		}
		x, y := r.toScreen(g.DrawPos())
		r.renderSprite(screen, image, x, y, g.DrawRotation())
		debugString := fmt.Sprintf("%s\n%0.0f%%", owner, 100*(1-g.Damage/g.MaxDamage))
		ebitenutil.DebugPrintAt(screen, debugString, int(x)-16, int(y)+16)
	case world.KindBullet:
		x, y := r.toScreen(g.DrawPos())
		r.renderSprite(screen, r.Image("bullet"), x, y, 0)
	case world.KindParticle:
		x, y := r.toScreen(g.DrawPos())
		r.renderSprite(screen, r.Image("spark"), x, y, 0)
	}
}

func (r *Renderer) renderSprite(screen, image *ebiten.Image, x, y, angle float64) {
	opt := &ebiten.DrawImageOptions{}
	width, height := image.Size()
	opt.GeoM.Translate(float64(-width)/2, float64(-height)/2)
	opt.GeoM.Rotate(angle)
	opt.GeoM.Translate(x, y)
	opt.Filter = ebiten.FilterLinear
	screen.DrawImage(image, opt)
}

// RenderWall fills the wall's live triangles.
func (r *Renderer) RenderWall(screen *ebiten.Image, w *world.Wall) {
	if w == nil {
		return
	}
	cr, cg, cb, ca := colorWall.RGBA()
	r.vertices, r.indices = r.vertices[:0], r.indices[:0]
	for _, t := range w.Triangles() {
		if len(r.vertices)+3 > maxVertices {
			r.flush(screen)
		}
		for _, v := range t {
			x, y := r.toScreen(v)
			r.indices = append(r.indices, uint16(len(r.vertices)))
			r.vertices = append(r.vertices, ebiten.Vertex{
				DstX:   float32(x),
				DstY:   float32(y),
				SrcX:   1,
				SrcY:   1,
				ColorR: float32(cr) / 0xffff,
				ColorG: float32(cg) / 0xffff,
				ColorB: float32(cb) / 0xffff,
				ColorA: float32(ca) / 0xffff,
			})
		}
	}
	r.flush(screen)
}

func (r *Renderer) flush(screen *ebiten.Image) {
	if len(r.indices) > 0 {
		screen.DrawTriangles(r.vertices, r.indices, r.pixel, nil)
	}
	r.vertices, r.indices = r.vertices[:0], r.indices[:0]
}

// RenderBounds outlines the arena.
func (r *Renderer) RenderBounds(screen *ebiten.Image, b world.Bounds) {
	x0, y0 := r.toScreen(world.Vector{X: b.Min, Y: b.Min})
	x1, y1 := r.toScreen(world.Vector{X: b.Max, Y: b.Max})
	c := color.RGBA{60, 64, 90, 255}
	ebitenutil.DrawLine(screen, x0, y0, x1, y0, c)
	ebitenutil.DrawLine(screen, x1, y0, x1, y1, c)
	ebitenutil.DrawLine(screen, x1, y1, x0, y1, c)
	ebitenutil.DrawLine(screen, x0, y1, x0, y0, c)
}
