package transport

import (
	"sync"

	"github.com/JoshuaDoes/logger"
	"github.com/pkg/errors"
)

var log = logger.NewLogger("aw:transport", 2)

var (
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

// Conn is an ordered, message-oriented connection. Send never blocks and
// Poll returns queued inbound messages without waiting, so both are safe to
// call from a frame loop.
type Conn interface {
	Send(b []byte) error
	Poll() ([]byte, bool)
	Close() error
	// Done is closed once the connection can no longer send.
	Done() <-chan struct{}
}

// DefaultQueueSize bounds each direction of a connection.
const DefaultQueueSize = 1024

type pipe struct {
	done chan struct{}
	once sync.Once
}

func (p *pipe) close() {
	p.once.Do(func() { close(p.done) })
}

type pipeEnd struct {
	*pipe
	in  <-chan []byte
	out chan<- []byte
}

// Pipe returns two connected in-memory ends. Closing either end closes both.
func Pipe(queueSize int) (Conn, Conn) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &pipe{done: make(chan struct{})}
	ab := make(chan []byte, queueSize)
	ba := make(chan []byte, queueSize)
	return &pipeEnd{pipe: p, in: ba, out: ab}, &pipeEnd{pipe: p, in: ab, out: ba}
}

func (e *pipeEnd) Send(b []byte) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.out <- append([]byte(nil), b...):
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *pipeEnd) Poll() ([]byte, bool) {
	select {
	case b := <-e.in:
		return b, true
	default:
		return nil, false
	}
}

func (e *pipeEnd) Close() error {
	e.close()
	return nil
}

func (e *pipeEnd) Done() <-chan struct{} {
	return e.done
}
