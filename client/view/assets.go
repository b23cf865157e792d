package view

import (
	_ "embed"
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/vector"
)

//go:embed assets/version.txt
var Version string

var (
	colorBackground = color.RGBA{16, 18, 32, 255}
	colorLocal      = color.RGBA{218, 212, 94, 255}
	colorEnemy      = color.RGBA{208, 70, 72, 255}
	colorBullet     = color.RGBA{255, 240, 200, 255}
	colorSpark      = color.RGBA{255, 160, 60, 255}
	colorWall       = color.RGBA{120, 128, 150, 255}
)

// Assets holds the sprites, drawn at start up so the client ships no image
// files.
type Assets struct {
	images map[string]*ebiten.Image
	// pixel is the source of every filled triangle.
	pixel *ebiten.Image
}

func (a *Assets) Image(name string) *ebiten.Image {
	image := a.images[name]
	if image == nil {
		log.Fatal("invalid image name: ", name)
	}
	return image
}

func LoadAssets() *Assets {
	a := &Assets{
		images: map[string]*ebiten.Image{
			"player": shipSprite(28, colorLocal),
			"enemy":  shipSprite(28, colorEnemy),
			"bullet": dotSprite(4, colorBullet),
			"spark":  dotSprite(2, colorSpark),
		},
	}
	pixel := ebiten.NewImage(3, 3)
	pixel.Fill(color.White)
	a.pixel = pixel.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	return a
}

// shipSprite is an arrow pointing along +X.
func shipSprite(size int, c color.Color) *ebiten.Image {
	s := float32(size)
	r := vector.NewRasterizer(size, size)
	r.MoveTo(s, s/2)
	r.LineTo(0, 0)
	r.LineTo(s/4, s/2)
	r.LineTo(0, s)
	r.ClosePath()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	return ebiten.NewImageFromImage(dst)
}

func dotSprite(size int, c color.Color) *ebiten.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return ebiten.NewImageFromImage(dst)
}
