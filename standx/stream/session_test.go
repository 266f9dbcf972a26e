package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perpbot/gostandx/standx/types"
)

type staticTokens struct {
	mu    sync.Mutex
	calls int
}

func (s *staticTokens) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "stream-token", nil
}

// wsVenue is a one-connection-at-a-time fake stream endpoint. It verifies
// the auth frame, then plays the queued frames and keeps the connection open
// until closed.
type wsVenue struct {
	t      *testing.T
	frames []string

	mu    sync.Mutex
	dials int
	auths []authFrame
}

func (v *wsVenue) handler() http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			v.t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var frame authFrame
		if err := conn.ReadJSON(&frame); err != nil {
			v.t.Errorf("read auth frame: %v", err)
			return
		}

		v.mu.Lock()
		v.dials++
		v.auths = append(v.auths, frame)
		frames := v.frames
		v.mu.Unlock()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSessionConnectAndDispatch(t *testing.T) {
	venue := &wsVenue{t: t, frames: []string{
		`{"seq": 1}`,
		`{"channel":"order","data":{"symbol":"BTC-USD","cl_ord_id":"ord-1","status":"new","side":"buy","qty":"1","price":"100"}}`,
		`{"channel":"order","data":{"symbol":"BTC-USD","cl_ord_id":"ord-1","status":"filled","side":"buy","qty":"1","fill_avg_price":"100.25","fill_qty":"1"}}`,
		`{"channel":"position","data":{"symbol":"BTC-USD","qty":"1"}}`,
	}}
	srv := httptest.NewServer(venue.handler())
	defer srv.Close()

	received := make(chan types.OrderUpdate, 8)
	tokens := &staticTokens{}
	session := NewSession(tokens, Config{
		URL:         wsURL(srv),
		SettleDelay: 10 * time.Millisecond,
		Handler: func(u types.OrderUpdate) error {
			received <- u
			return nil
		},
	})

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Disconnect()

	select {
	case update := <-received:
		if update.OrderID != "ord-1" || update.Status != types.OrderStatusFilled {
			t.Errorf("update = %+v, want filled ord-1", update)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no order update dispatched")
	}

	// Only the terminal event reaches the handler; the intermediate "new"
	// and the position frame are filtered or consumed silently.
	select {
	case update := <-received:
		t.Errorf("unexpected extra update: %+v", update)
	case <-time.After(100 * time.Millisecond):
	}

	venue.mu.Lock()
	defer venue.mu.Unlock()
	if len(venue.auths) != 1 {
		t.Fatalf("auth frames = %d, want 1", len(venue.auths))
	}
	auth := venue.auths[0].Auth
	if auth.Token != "stream-token" {
		t.Errorf("auth token = %q, want stream-token", auth.Token)
	}
	if len(auth.Streams) != 2 || auth.Streams[0].Channel != "order" || auth.Streams[1].Channel != "position" {
		t.Errorf("auth streams = %+v, want order and position", auth.Streams)
	}

	if !session.IsRunning() {
		t.Error("session not running after Connect")
	}
}

func TestSessionReconnectsAfterDrop(t *testing.T) {
	venue := &wsVenue{t: t}

	var dropOnce sync.Once
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var frame authFrame
		if err := conn.ReadJSON(&frame); err != nil {
			conn.Close()
			return
		}

		venue.mu.Lock()
		venue.dials++
		dials := venue.dials
		venue.mu.Unlock()

		if dials == 1 {
			// First connection dies right after authenticating.
			dropOnce.Do(func() { conn.Close() })
			return
		}

		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"channel":"order","data":{"symbol":"BTC-USD","cl_ord_id":"ord-2","status":"canceled","side":"sell","qty":"2","price":"99.5"}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer srv.Close()

	received := make(chan types.OrderUpdate, 1)
	session := NewSession(&staticTokens{}, Config{
		URL:         wsURL(srv),
		SettleDelay: 10 * time.Millisecond,
		Reconnect:   ReconnectPolicy{Delay: 20 * time.Millisecond},
		Handler: func(u types.OrderUpdate) error {
			received <- u
			return nil
		},
	})

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Disconnect()

	select {
	case update := <-received:
		if update.OrderID != "ord-2" || update.Status != types.OrderStatusCanceled {
			t.Errorf("update = %+v, want canceled ord-2", update)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update after reconnect")
	}

	venue.mu.Lock()
	dials := venue.dials
	venue.mu.Unlock()
	if dials < 2 {
		t.Errorf("dials = %d, want at least 2", dials)
	}
}

func TestSessionDisconnectIsIdempotent(t *testing.T) {
	venue := &wsVenue{t: t}
	srv := httptest.NewServer(venue.handler())
	defer srv.Close()

	session := NewSession(&staticTokens{}, Config{
		URL:         wsURL(srv),
		SettleDelay: 10 * time.Millisecond,
	})
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := session.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if session.IsRunning() {
		t.Error("session still running after Disconnect")
	}
	if err := session.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestSessionConnectExhaustsBudget(t *testing.T) {
	// Plain HTTP endpoint rejects the websocket upgrade every time.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadRequest)
	}))
	defer srv.Close()

	session := NewSession(&staticTokens{}, Config{
		URL:             wsURL(srv),
		ConnectAttempts: 2,
		ConnectDelay:    10 * time.Millisecond,
		SettleDelay:     time.Millisecond,
	})
	if err := session.Connect(context.Background()); err == nil {
		t.Fatal("Connect succeeded against a non-websocket endpoint")
	}
	if session.IsRunning() {
		t.Error("session running after failed Connect")
	}
}
