package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"nhooyr.io/websocket"
)

// readLimit leaves room for a join snapshot of a crowded arena.
const readLimit = 4 << 20

// Websocket carries one wire message per binary websocket message. A read
// and a write goroutine move messages between the socket and the queues.
type Websocket struct {
	Name string

	c      *websocket.Conn
	in     chan []byte
	out    chan []byte
	done   chan struct{}
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

func newWebsocket(c *websocket.Conn, queueSize int) *Websocket {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	c.SetReadLimit(readLimit)
	ctx, cancel := context.WithCancel(context.Background())
	w := &Websocket{
		Name:   ksuid.New().String(),
		c:      c,
		in:     make(chan []byte, queueSize),
		out:    make(chan []byte, queueSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go w.readMessages()
	go w.writeMessages()
	return w
}

// Accept upgrades an HTTP request. origins lists the hosts browsers may
// connect from; native clients send no Origin header and always pass.
func Accept(rw http.ResponseWriter, r *http.Request, origins []string, queueSize int) (*Websocket, error) {
	c, err := websocket.Accept(rw, r, &websocket.AcceptOptions{OriginPatterns: origins})
	if err != nil {
		return nil, errors.Wrap(err, "accepting websocket")
	}
	return newWebsocket(c, queueSize), nil
}

func Dial(ctx context.Context, url string, queueSize int) (*Websocket, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", url)
	}
	return newWebsocket(c, queueSize), nil
}

func (w *Websocket) readMessages() {
	for {
		typ, b, err := w.c.Read(w.ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				log.Debug(w.Name, " closed by peer")
			} else {
				log.Debug(w.Name, " read: ", err)
			}
			w.shutdown(websocket.StatusInternalError, "")
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		select {
		case w.in <- b:
		case <-w.done:
			return
		default:
			log.Warn(w.Name, " inbound queue full, dropping connection")
			w.shutdown(websocket.StatusPolicyViolation, "inbound queue full")
			return
		}
	}
}

func (w *Websocket) writeMessages() {
	for {
		select {
		case b := <-w.out:
			if err := w.c.Write(w.ctx, websocket.MessageBinary, b); err != nil {
				log.Debug(w.Name, " write: ", err)
				w.shutdown(websocket.StatusInternalError, "")
				return
			}
		case <-w.done:
			return
		}
	}
}

// shutdown stops sends right away; the closing handshake runs in the
// background so a frame loop never waits on a slow peer.
func (w *Websocket) shutdown(code websocket.StatusCode, reason string) {
	w.once.Do(func() {
		close(w.done)
		go func() {
			defer w.cancel()
			if err := w.c.Close(code, reason); err != nil {
				log.Trace(w.Name, " close: ", err)
			}
		}()
	})
}

func (w *Websocket) Send(b []byte) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	select {
	case w.out <- b:
		return nil
	default:
		w.shutdown(websocket.StatusPolicyViolation, "write would block")
		return ErrQueueFull
	}
}

func (w *Websocket) Poll() ([]byte, bool) {
	select {
	case b := <-w.in:
		return b, true
	default:
		return nil, false
	}
}

func (w *Websocket) Close() error {
	w.shutdown(websocket.StatusNormalClosure, "")
	return nil
}

func (w *Websocket) Done() <-chan struct{} {
	return w.done
}
