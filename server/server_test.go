package server

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"

	"assaultwing/transport"
	"assaultwing/utils"
	"assaultwing/wire"
	"assaultwing/world"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := utils.DefaultConfig()
	cfg.Players.BlockedWords = []string{"heck"}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func connect(t *testing.T, s *Server, name string) transport.Conn {
	t.Helper()
	client, server := transport.Pipe(0)
	s.Connect(server, name)
	return client
}

func send(t *testing.T, c transport.Conn, m wire.Message) {
	t.Helper()
	if err := c.Send(wire.Marshal(m)); err != nil {
		t.Fatal(err)
	}
}

func receive(t *testing.T, c transport.Conn) []wire.Message {
	t.Helper()
	var msgs []wire.Message
	for {
		b, ok := c.Poll()
		if !ok {
			return msgs
		}
		m, err := wire.Unmarshal(b)
		if err != nil {
			t.Fatal(err)
		}
		msgs = append(msgs, m)
	}
}

func tick(t *testing.T, s *Server) {
	t.Helper()
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
}

func join(t *testing.T, s *Server, name string) (transport.Conn, *wire.SessionStart, *wire.Creation) {
	t.Helper()
	c := connect(t, s, name)
	send(t, c, &wire.Join{Name: name, ShipType: "windlord"})
	tick(t, s)
	msgs := receive(t, c)
	if len(msgs) != 2 {
		t.Fatalf("joining got %d messages, want session start and snapshot", len(msgs))
	}
	start, ok := msgs[0].(*wire.SessionStart)
	if !ok {
		t.Fatalf("first message is %s, want session start", msgs[0].Kind())
	}
	snap, ok := msgs[1].(*wire.Creation)
	if !ok {
		t.Fatalf("second message is %s, want creation", msgs[1].Kind())
	}
	return c, start, snap
}

func TestJoinGetsSessionAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	_, start, snap := join(t, s, "ace")
	if start.LocalPlayer != 0 || start.PlayerCount != 1 || start.Arena != s.cfg.Arena.Name {
		t.Fatalf("session start = %+v", start)
	}
	p, err := world.DeserializePlayer(start.Players[0])
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "ace" || p.ShipType != "windlord" {
		t.Fatalf("player = %+v", p)
	}
	// Both walls and the new ship.
	if want := len(s.cfg.Arena.Walls) + 1; len(snap.Entries) != want {
		t.Fatalf("snapshot has %d entries, want %d", len(snap.Entries), want)
	}
}

func TestClientMirrorsServer(t *testing.T) {
	s := newTestServer(t)
	c, start, snap := join(t, s, "ace")

	cw := world.NewWorld(world.ConfigFromTOML(s.cfg, false), world.DefaultRegistry())
	a := world.NewApplier(cw)
	for _, m := range []wire.Message{start, snap} {
		if err := a.Apply(m); err != nil {
			t.Fatal(err)
		}
	}
	send(t, c, &wire.Input{Frame: 1, Controls: wire.ControlThrust | wire.ControlFire})
	for i := 0; i < 20; i++ {
		tick(t, s)
		for _, m := range receive(t, c) {
			if err := a.Apply(m); err != nil {
				t.Fatalf("frame %d: %v", i, err)
			}
		}
		cw.Update()
	}

	var relevant int
	for _, g := range s.world.Gobs() {
		if !g.Relevant {
			continue
		}
		relevant++
		if _, ok := cw.Gob(g.ID); !ok {
			t.Fatalf("client is missing %s", g)
		}
	}
	if relevant <= len(s.cfg.Arena.Walls)+1 {
		t.Fatal("ship fired no bullets")
	}
}

func TestBlockedNameIsReplaced(t *testing.T) {
	s := newTestServer(t)
	join(t, s, "ace")
	_, start, _ := join(t, s, "heck")
	for _, b := range start.Players {
		p, _ := world.DeserializePlayer(b)
		if p.ID == start.LocalPlayer && p.Name != "Pilot 2" {
			t.Fatalf("blocked name became %q, want Pilot 2", p.Name)
		}
	}
}

func TestPingIsAnswered(t *testing.T) {
	s := newTestServer(t)
	c, _, _ := join(t, s, "ace")
	send(t, c, &wire.Ping{ClientFrame: 7})
	frame := s.world.Frame
	tick(t, s)
	for _, m := range receive(t, c) {
		if p, ok := m.(*wire.Pong); ok {
			if p.ClientFrame != 7 || p.ServerFrame != frame {
				t.Fatalf("pong = %+v, want client frame 7 server frame %d", p, frame)
			}
			return
		}
	}
	t.Fatal("no pong")
}

func TestCorruptClientIsDropped(t *testing.T) {
	s := newTestServer(t)
	bad, _, _ := join(t, s, "bad")
	good, _, _ := join(t, s, "good")
	ship := s.world.Players[0].Ship

	bad.Send([]byte{byte(wire.KindInput), 0xff})
	tick(t, s)
	select {
	case <-bad.Done():
	default:
		t.Fatal("connection that sent garbage is still open")
	}
	if _, ok := s.world.Players[0]; ok {
		t.Fatal("player of a dropped connection is still in the game")
	}
	var deleted bool
	for _, m := range receive(t, good) {
		if d, ok := m.(*wire.Deletion); ok && world.ID(d.ID) == ship {
			deleted = true
		}
	}
	if !deleted {
		t.Fatal("other clients were not told the ship is gone")
	}
}

func TestServerMessagesFromClientAreRejected(t *testing.T) {
	s := newTestServer(t)
	c, _, _ := join(t, s, "ace")
	send(t, c, &wire.Deletion{ID: 1})
	tick(t, s)
	select {
	case <-c.Done():
	default:
		t.Fatal("client sending server messages was not dropped")
	}
}

func TestUnknownShipTypeUsesArenaShips(t *testing.T) {
	s := newTestServer(t)
	c := connect(t, s, "odd")
	send(t, c, &wire.Join{Name: "odd", ShipType: "zeppelin"})
	tick(t, s)
	if p := s.world.Players[0]; p == nil || p.ShipType != s.cfg.Arena.Ships {
		t.Fatalf("player = %+v, want ship type %s", p, s.cfg.Arena.Ships)
	}
}

func TestFrameLoopFailureEndsRun(t *testing.T) {
	s := newTestServer(t)
	for {
		if _, err := s.world.Session.IDs.Allocate(true); err != nil {
			break
		}
	}
	c := connect(t, s, "late")
	send(t, c, &wire.Join{Name: "late", ShipType: "windlord"})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- run(l, s, make(chan os.Signal))
	}()
	select {
	case err := <-done:
		if !errors.Is(err, world.ErrIDsExhausted) {
			t.Fatalf("run = %v, want ErrIDsExhausted", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run kept going after the frame loop failed")
	}
}

func TestOversizedWallIsRefused(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.Arena.Walls = []utils.WallConfig{{X: 0, Y: 0, W: 2100, H: 2100, Cell: 8}}
	if _, err := NewServer(cfg); !errors.Is(err, world.ErrMeshTooLarge) {
		t.Fatalf("NewServer = %v, want ErrMeshTooLarge", err)
	}
}
