package view

import (
	"fmt"
	"strings"

	"github.com/JoshuaDoes/logger"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/pkg/errors"

	"assaultwing/client"
	"assaultwing/wire"
	"assaultwing/world"
)

var log = logger.NewLogger("aw:view", 2)

// ErrQuit ends the game loop when the player quits.
var ErrQuit = errors.New("quit")

type Game struct {
	*Renderer
	client *client.Client
}

func NewGame(c *client.Client, assets *Assets) *Game {
	return &Game{
		Renderer: NewRenderer(assets),
		client:   c,
	}
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ErrQuit
	}
	return g.client.Step(controls())
}

func controls() wire.Controls {
	var c wire.Controls
	if ebiten.IsKeyPressed(ebiten.KeyUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		c |= wire.ControlThrust
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		c |= wire.ControlLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		c |= wire.ControlRight
	}
	if ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyControl) {
		c |= wire.ControlFire
	}
	return c
}

func (g *Game) debugString() string {
	w := g.client.World
	lines := []string{
		fmt.Sprintf("Version: %s, TPS: %0.02f, FPS: %0.02f", strings.TrimSpace(Version), ebiten.CurrentTPS(), ebiten.CurrentFPS()),
		fmt.Sprintf("Arena: %s, frame %d, %d gobs, ping %d frames", w.Arena.Name, w.Frame, w.Len(), g.client.Applier.Clock.RoundTrip()),
	}
	for _, p := range w.PlayerList() {
		lines = append(lines, fmt.Sprintf("%s: %d kills, %d deaths", p.Name, p.Kills, p.Deaths))
	}
	return strings.Join(lines, "\n")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	w := g.client.World
	width, height := screen.Size()

	center := (w.Bounds.Min + w.Bounds.Max) / 2
	camera := world.Vector{X: center, Y: center}
	if ship, ok := g.client.LocalShip(); ok {
		camera = ship.DrawPos()
	}
	g.LookAt(camera, width, height)
	g.RenderBounds(screen, w.Bounds)

	for _, gob := range w.Gobs() {
		if gob.Dead {
			continue
		}
		var owner string
		if p, ok := w.Players[gob.Owner]; ok {
			owner = p.Name
		}
		g.RenderGob(screen, gob, gob.Owner != world.NoOwner && gob.Owner == w.LocalPlayer, owner)
	}
	ebitenutil.DebugPrint(screen, g.debugString())
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}
