package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/perpbot/gostandx/standx/types"
)

var log = logrus.WithField("component", "standx_stream")

// DefaultURL is the venue's streaming endpoint.
const DefaultURL = "wss://perps.standx.com/ws-stream/v1"

// TokenSource supplies a valid session token. The stream asks for a token on
// every (re)connect so an invalidated token is replaced transparently.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Handler receives normalized order updates in strict arrival order. Handler
// errors are logged and never kill the session.
type Handler func(types.OrderUpdate) error

// ReconnectPolicy governs the redial loop after an established connection
// drops. MaxFailures caps consecutive failed rounds; zero or negative retries
// forever.
type ReconnectPolicy struct {
	MaxFailures int
	Delay       time.Duration
}

// Config carries the session tunables. Zero values select the defaults.
type Config struct {
	URL             string
	ConnectAttempts int           // bounded dial budget for Connect
	ConnectDelay    time.Duration // spacing between dial attempts
	SettleDelay     time.Duration // wait after the auth frame; no ack is awaited
	QueueSize       int           // bounded dispatch queue between reader and handler
	Reconnect       ReconnectPolicy
	Handler         Handler
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
	if c.ConnectDelay == 0 {
		c.ConnectDelay = 5 * time.Second
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = time.Second
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.Reconnect.Delay == 0 {
		c.Reconnect.Delay = 5 * time.Second
	}
}

// Session owns one persistent streaming connection: it authenticates it,
// listens for order and position events, reconnects on loss, and dispatches
// normalized updates to the configured handler one at a time.
type Session struct {
	cfg    Config
	tokens TokenSource
	dialer websocket.Dialer

	mu      sync.RWMutex
	conn    *websocket.Conn
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	events chan types.OrderUpdate
}

// NewSession builds a session; Connect starts it.
func NewSession(tokens TokenSource, cfg Config) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:    cfg,
		tokens: tokens,
		dialer: websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		events: make(chan types.OrderUpdate, cfg.QueueSize),
	}
}

type authFrame struct {
	Auth authPayload `json:"auth"`
}

type authPayload struct {
	Token   string      `json:"token"`
	Streams []streamSub `json:"streams"`
}

type streamSub struct {
	Channel string `json:"channel"`
}

// Connect dials and authenticates the stream within the bounded connect
// budget, then starts the reader and dispatcher. Exhausting the budget
// returns an error; once connected, losses are handled by the reconnect
// policy instead.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("session already connected")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	if err := s.dial(s.ctx, s.cfg.ConnectAttempts); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.cancel()
		return err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.dispatchLoop()
	return nil
}

// dial attempts up to attempts connect+authenticate rounds spaced by the
// configured delay.
func (s *Session) dial(ctx context.Context, attempts int) error {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.ConnectDelay):
			}
		}

		if err := s.dialOnce(ctx); err != nil {
			lastErr = err
			log.Warnf("stream connect attempt %d/%d failed: %v", i, attempts, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("connect stream after %d attempts: %w", attempts, lastErr)
}

func (s *Session) dialOnce(ctx context.Context) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}

	frame := authFrame{Auth: authPayload{
		Token:   token,
		Streams: []streamSub{{Channel: "order"}, {Channel: "position"}},
	}}
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		return fmt.Errorf("send auth frame: %w", err)
	}

	// No explicit ack is awaited; the venue starts pushing after a short
	// settle. The ack-shaped seq frame is logged when it arrives.
	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-time.After(s.cfg.SettleDelay):
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	log.Info("stream authenticated")
	return nil
}

// readLoop reads frames in strict arrival order and feeds the dispatch queue.
// A read failure while running hands off to the reconnect loop.
func (s *Session) readLoop() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("stream read loop panic recovered: %v", r)
		}
	}()

	for {
		conn := s.currentConn()
		if conn == nil || !s.IsRunning() {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if !s.IsRunning() || s.ctx.Err() != nil {
				return
			}
			log.Warnf("stream connection lost: %v", err)
			if !s.reconnect() {
				return
			}
			continue
		}

		s.handleMessage(data)
	}
}

// reconnect redials under the reconnect policy. It reports whether reading
// should resume.
func (s *Session) reconnect() bool {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	failures := 0
	for s.IsRunning() {
		if max := s.cfg.Reconnect.MaxFailures; max > 0 && failures >= max {
			log.Errorf("giving up after %d consecutive reconnect failures", failures)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.cancel()
			return false
		}

		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(s.cfg.Reconnect.Delay):
		}

		if err := s.dialOnce(s.ctx); err != nil {
			failures++
			log.Warnf("stream reconnect attempt %d failed: %v", failures, err)
			continue
		}
		log.Info("stream reconnected")
		return true
	}
	return false
}

// handleMessage routes one inbound frame. Malformed JSON is logged and
// skipped; unknown channels are ignored.
func (s *Session) handleMessage(data []byte) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		log.Warnf("failed to parse stream message: %v", err)
		return
	}

	switch env.Channel {
	case "order":
		var ev orderEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			log.Warnf("failed to parse order event: %v", err)
			return
		}
		update, ok := normalizeOrderUpdate(ev)
		if !ok {
			return
		}
		select {
		case s.events <- update:
		case <-s.ctx.Done():
		}
	case "position":
		s.handlePositionUpdate(env.Data)
	default:
		if env.Seq != nil {
			log.Debugf("stream auth confirmed (seq=%d)", *env.Seq)
		}
	}
}

// handlePositionUpdate is a reserved hook: position frames are consumed but
// not yet surfaced to callers.
func (s *Session) handlePositionUpdate(json.RawMessage) {}

// dispatchLoop drains the event queue one update at a time, preserving
// arrival order. A slow handler backs up the bounded queue, not the socket
// read deadline.
func (s *Session) dispatchLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case update := <-s.events:
			s.dispatch(update)
		}
	}
}

func (s *Session) dispatch(update types.OrderUpdate) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("order update handler panicked: %v", r)
		}
	}()

	if s.cfg.Handler == nil {
		return
	}
	if err := s.cfg.Handler(update); err != nil {
		log.Errorf("order update handler failed: %v", err)
	}
}

// Disconnect stops the session and closes the connection. It is the only
// cancellation primitive; the session is terminal afterwards.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		log.Warn("timed out waiting for stream goroutines to exit")
	}

	log.Info("stream disconnected")
	return nil
}

// IsRunning reports whether the session has been connected and not yet
// disconnected or given up.
func (s *Session) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Session) currentConn() *websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
