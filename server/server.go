package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"time"

	swearfilter "github.com/JoshuaDoes/gofuckyourself"
	"github.com/JoshuaDoes/logger"
	"github.com/pkg/errors"

	"assaultwing/transport"
	"assaultwing/utils"
	"assaultwing/wire"
	"assaultwing/world"
)

var log = logger.NewLogger("aw:server", 2)

type subscriber struct {
	Name   string
	conn   transport.Conn
	player int8
	joined bool
}

type Server struct {
	cfg        *utils.Config
	world      *world.World
	replicator *world.Replicator
	filter     *swearfilter.SwearFilter

	mu          sync.Mutex
	pending     []*subscriber
	subscribers []*subscriber
	serveMux    http.ServeMux
}

func NewServer(cfg *utils.Config) (*Server, error) {
	w := world.NewWorld(world.ConfigFromTOML(cfg, true), world.DefaultRegistry())
	w.Reset(world.NewSession(1, w.FullUpdateInterval))
	if err := world.ArenaFromConfig(cfg.Arena).Load(w); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:        cfg,
		world:      w,
		replicator: world.NewReplicator(w),
		filter:     swearfilter.NewSwearFilter(true, cfg.Players.BlockedWords...),
	}
	log.Info("arena ", cfg.Arena.Name, " session ", w.Session.ID.String())

	s.serveMux.HandleFunc("/", s.onConnection)
	s.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	s.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

func (s *Server) onConnection(w http.ResponseWriter, r *http.Request) {
	c, err := transport.Accept(w, r, nil, s.cfg.Net.QueueSize)
	if err != nil {
		log.Error(err)
		return
	}
	s.Connect(c, c.Name)
}

// Connect hands a connection to the frame loop. It takes part once its
// Join message has been handled.
func (s *Server) Connect(c transport.Conn, name string) {
	log.Info("connection ", name)
	s.mu.Lock()
	s.pending = append(s.pending, &subscriber{Name: name, conn: c, player: world.NoOwner})
	s.mu.Unlock()
}

// Serve runs the frame loop until ctx ends or the world fails.
func (s *Server) Serve(ctx context.Context) error {
	rate := s.cfg.Net.TickRate
	if rate <= 0 {
		rate = 60
	}
	tick := time.NewTicker(time.Second / time.Duration(rate))
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			if err := s.Tick(); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick runs one server frame: inbound messages, simulation, then the
// frame's replication messages. Clients that joined this frame get the
// session and a snapshot after the broadcast, so nothing reaches them twice.
func (s *Server) Tick() error {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, s.pending...)
	s.pending = nil
	s.mu.Unlock()

	var joins []*subscriber
	live := s.subscribers[:0]
	for _, sub := range s.subscribers {
		joined := sub.joined
		if err := s.drain(sub); err != nil {
			log.Error(sub.Name, ": ", err)
			sub.conn.Close()
		}
		if s.closed(sub) {
			if err := s.drop(sub); err != nil {
				return err
			}
			continue
		}
		if sub.joined && !joined {
			joins = append(joins, sub)
		}
		live = append(live, sub)
	}
	s.subscribers = live

	if err := s.world.Update(); err != nil {
		return errors.Wrap(err, "simulating frame")
	}
	msgs := s.replicator.Frame()
	for _, sub := range s.subscribers {
		if !sub.joined || contains(joins, sub) {
			continue
		}
		for _, m := range msgs {
			s.send(sub, m)
		}
	}

	for _, sub := range joins {
		s.send(sub, s.replicator.SessionStart(sub.player))
		s.send(sub, s.replicator.Snapshot())
	}
	return nil
}

func contains(subs []*subscriber, sub *subscriber) bool {
	for _, s := range subs {
		if s == sub {
			return true
		}
	}
	return false
}

func (s *Server) closed(sub *subscriber) bool {
	select {
	case <-sub.conn.Done():
		return true
	default:
		return false
	}
}

func (s *Server) send(sub *subscriber, m wire.Message) {
	if err := sub.conn.Send(wire.Marshal(m)); err != nil {
		log.Warn(sub.Name, ": sending ", m.Kind(), ": ", err)
		sub.conn.Close()
	}
}

// drain handles everything the client sent since the last frame.
func (s *Server) drain(sub *subscriber) error {
	for {
		b, ok := sub.conn.Poll()
		if !ok {
			return nil
		}
		m, err := wire.Unmarshal(b)
		if err != nil {
			return err
		}
		if err := s.onMessage(sub, m); err != nil {
			return err
		}
	}
}

func (s *Server) onMessage(sub *subscriber, m wire.Message) error {
	switch m := m.(type) {
	case *wire.Join:
		if sub.joined {
			log.Warn(sub.Name, " joined twice")
			return nil
		}
		p, err := s.world.AddPlayer(s.playerName(m.Name), s.shipType(m.ShipType))
		if err != nil {
			return err
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("Pilot %d", p.ID+1)
		}
		sub.player = p.ID
		sub.joined = true
		log.Info(sub.Name, " joined as ", p.Name, " (player ", p.ID, ")")

	case *wire.Input:
		if sub.joined {
			s.world.SetControls(sub.player, m.Controls)
		}

	case *wire.Ping:
		s.send(sub, &wire.Pong{ClientFrame: m.ClientFrame, ServerFrame: s.world.Frame})

	default:
		return errors.Wrapf(wire.ErrCorrupt, "client sent %s", m.Kind())
	}
	return nil
}

// playerName returns "" for names that need a generated one.
func (s *Server) playerName(name string) string {
	if name == "" {
		return ""
	}
	tripped, err := s.filter.Check(name)
	if err != nil {
		log.Error("filtering name: ", err)
		return ""
	}
	if len(tripped) > 0 {
		log.Debug("rejected name ", name, ": ", tripped)
		return ""
	}
	return name
}

// shipType keeps spectators and swaps unknown ships for the arena's.
func (s *Server) shipType(name string) string {
	if name == "" {
		return ""
	}
	if t, err := s.world.Registry.Lookup(name); err == nil && t.Kind == world.KindShip {
		return name
	}
	log.Warn("unknown ship type ", name, ", using ", s.world.Arena.Ships)
	return s.world.Arena.Ships
}

func (s *Server) drop(sub *subscriber) error {
	log.Info(sub.Name, " disconnected")
	if !sub.joined {
		return nil
	}
	return s.world.Process(s.world.RemovePlayer(sub.player))
}

func Run(args []string) error {
	cfg := utils.DefaultConfig()
	if len(args) > 2 {
		c, err := utils.ReadTOML(args[2])
		if err != nil {
			return err
		}
		cfg = c
	}
	address := cfg.Net.Address
	if len(args) > 1 && args[1] != "" {
		address = args[1]
	}
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	log.Info("Listening on http://", l.Addr())
	server, err := NewServer(cfg)
	if err != nil {
		l.Close()
		return err
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	return run(l, server, sigs)
}

// run serves l and the frame loop until one of them fails or a signal
// arrives. A frame loop failure is returned so the binary exits with it.
func run(l net.Listener, server *Server, sigs <-chan os.Signal) error {
	// Hijacked websocket connections keep any deadline set here, so only
	// the request header is bounded.
	s := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	httpErr := make(chan error, 1)
	loopErr := make(chan error, 1)
	go func() {
		httpErr <- s.Serve(l)
	}()
	go func() {
		loopErr <- server.Serve(ctx)
	}()

	var result error
	select {
	case err := <-httpErr:
		log.Error(err)
		result = err
	case err := <-loopErr:
		log.Error("frame loop: ", err)
		result = err
	case sig := <-sigs:
		log.Info("terminating: ", sig)
	}

	cancel()
	if err := s.Shutdown(context.Background()); err != nil && result == nil {
		return err
	}
	return result
}
