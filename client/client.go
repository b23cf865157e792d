package client

import (
	"github.com/JoshuaDoes/logger"
	"github.com/pkg/errors"

	"assaultwing/transport"
	"assaultwing/utils"
	"assaultwing/wire"
	"assaultwing/world"
)

var log = logger.NewLogger("aw:client", 2)

var ErrDisconnected = errors.New("disconnected from server")

// Client follows an authoritative server: it applies the server's messages
// to a local world, steps that world every frame and reports the local
// player's controls.
type Client struct {
	World   *world.World
	Applier *world.Applier

	conn         transport.Conn
	pingInterval int64
	controls     wire.Controls
	lastInput    int64
}

// New connects a client world to conn and asks to join. An empty ship type
// joins as a spectator.
func New(cfg *utils.Config, conn transport.Conn, name, shipType string) (*Client, error) {
	w := world.NewWorld(world.ConfigFromTOML(cfg, false), world.DefaultRegistry())
	c := &Client{
		World:        w,
		Applier:      world.NewApplier(w),
		conn:         conn,
		pingInterval: int64(cfg.Net.PingInterval),
	}
	if c.pingInterval <= 0 {
		c.pingInterval = 60
	}
	if err := c.send(&wire.Join{Name: name, ShipType: shipType}); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) send(m wire.Message) error {
	return errors.Wrapf(c.conn.Send(wire.Marshal(m)), "sending %s", m.Kind())
}

// LocalShip returns the ship of the local player, if it has one.
func (c *Client) LocalShip() (*world.Gob, bool) {
	p, ok := c.World.Players[c.World.LocalPlayer]
	if !ok || p.Ship == world.NoID {
		return nil, false
	}
	return c.World.Gob(p.Ship)
}

// Step runs one client frame with the given controls held down.
func (c *Client) Step(controls wire.Controls) error {
	if err := c.handleServerMessages(); err != nil {
		c.conn.Close()
		return err
	}
	if err := c.World.Update(); err != nil {
		return err
	}

	frame := c.World.Frame
	if controls != c.controls || frame-c.lastInput >= c.pingInterval {
		in := &wire.Input{Frame: c.Applier.Clock.ServerFrame(frame), Controls: controls}
		if err := c.send(in); err != nil {
			return err
		}
		c.controls = controls
		c.lastInput = frame
	}
	if frame%c.pingInterval == 0 {
		if err := c.send(&wire.Ping{ClientFrame: frame}); err != nil {
			return err
		}
	}

	select {
	case <-c.conn.Done():
		return ErrDisconnected
	default:
		return nil
	}
}

// handleServerMessages drains and applies server messages. Corruption ends
// the connection; references to gobs this client does not know are races
// with creations and deletions, and are only logged.
func (c *Client) handleServerMessages() error {
	for {
		b, ok := c.conn.Poll()
		if !ok {
			return nil
		}
		m, err := wire.Unmarshal(b)
		if err != nil {
			log.Error(err)
			return err
		}
		if err := c.Applier.Apply(m); err != nil {
			if errors.Is(err, world.ErrUnknownGob) {
				log.Warn(err)
				continue
			}
			log.Error(err)
			return err
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
