package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func pollWithin(t *testing.T, c Conn, d time.Duration) []byte {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if b, ok := c.Poll(); ok {
			return b
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no message arrived")
	return nil
}

func TestPipeKeepsOrder(t *testing.T) {
	a, b := Pipe(8)
	for i := byte(0); i < 5; i++ {
		if err := a.Send([]byte{i}); err != nil {
			t.Fatal(err)
		}
	}
	for i := byte(0); i < 5; i++ {
		got, ok := b.Poll()
		if !ok || got[0] != i {
			t.Fatalf("message %d = %v, %v", i, got, ok)
		}
	}
	if _, ok := b.Poll(); ok {
		t.Fatal("Poll on an empty queue returned a message")
	}
}

func TestPipeCopiesMessages(t *testing.T) {
	a, b := Pipe(1)
	msg := []byte{1, 2, 3}
	a.Send(msg)
	msg[0] = 9
	if got, _ := b.Poll(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("received %v, want the bytes as sent", got)
	}
}

func TestPipeQueueFull(t *testing.T) {
	a, _ := Pipe(1)
	a.Send([]byte{1})
	if err := a.Send([]byte{2}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestPipeSendAfterClose(t *testing.T) {
	a, b := Pipe(1)
	b.Close()
	b.Close()
	select {
	case <-a.Done():
	default:
		t.Fatal("closing one end left the other open")
	}
	if err := a.Send([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	accepted := make(chan *Websocket, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		c, err := Accept(rw, r, nil, 8)
		if err != nil {
			t.Error(err)
			return
		}
		accepted <- c
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), 8)
	if err != nil {
		t.Fatal(err)
	}
	var server *Websocket
	select {
	case server = <-accepted:
	case <-ctx.Done():
		t.Fatal("server never accepted")
	}

	if err := client.Send([]byte("join")); err != nil {
		t.Fatal(err)
	}
	if got := pollWithin(t, server, 5*time.Second); string(got) != "join" {
		t.Fatalf("server received %q", got)
	}
	server.Send([]byte("welcome"))
	if got := pollWithin(t, client, 5*time.Second); string(got) != "welcome" {
		t.Fatalf("client received %q", got)
	}

	client.Close()
	if err := client.Send([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: err = %v, want ErrClosed", err)
	}
	select {
	case <-server.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("server side did not notice the close")
	}
}
