package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"classquiz-service/internal/domain"
)

const (
	// DefaultReconnectDelay is the flat retry interval after any disconnect.
	DefaultReconnectDelay = 3 * time.Second
	// DefaultDismissAfter is how long a notification stays visible.
	DefaultDismissAfter = 10 * time.Second
)

// ClientConn is the read side of one subscription connection.
type ClientConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Transport establishes subscription connections; tests inject fakes.
type Transport interface {
	Dial(ctx context.Context) (ClientConn, error)
}

// ConnState is the subscriber's connection lifecycle.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnected
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Subscriber maintains a single logical subscription to the notification
// channel. It reconnects forever on a flat delay with no backoff; events
// missed while disconnected are gone. Received notifications are shown via
// OnNotify and auto-dismissed after a fixed window; a newer event resets
// the pending dismissal, since only one message is visible at a time.
type Subscriber struct {
	transport      Transport
	reconnectDelay time.Duration
	dismissAfter   time.Duration
	onNotify       func(domain.Notification)
	onDismiss      func()

	mu      sync.Mutex
	state   ConnState
	dismiss *time.Timer
}

// SubscriberOption customizes a Subscriber.
type SubscriberOption func(*Subscriber)

// WithReconnectDelay overrides the flat reconnect interval.
func WithReconnectDelay(d time.Duration) SubscriberOption {
	return func(s *Subscriber) { s.reconnectDelay = d }
}

// WithDismissAfter overrides the auto-dismiss window.
func WithDismissAfter(d time.Duration) SubscriberOption {
	return func(s *Subscriber) { s.dismissAfter = d }
}

// WithDismissFunc sets the callback fired when the visible notification expires.
func WithDismissFunc(fn func()) SubscriberOption {
	return func(s *Subscriber) { s.onDismiss = fn }
}

func NewSubscriber(transport Transport, onNotify func(domain.Notification), opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		transport:      transport,
		reconnectDelay: DefaultReconnectDelay,
		dismissAfter:   DefaultDismissAfter,
		onNotify:       onNotify,
		onDismiss:      func() {},
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current connection state.
func (s *Subscriber) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run drives the subscription until ctx is cancelled: dial, read until the
// connection drops, wait the flat delay, dial again. There is no retry cap.
func (s *Subscriber) Run(ctx context.Context) {
	defer s.setState(StateDisconnected)
	defer s.stopDismissTimer()

	for {
		conn, err := s.transport.Dial(ctx)
		if err != nil {
			log.Printf("notify: dial failed: %v", err)
		} else {
			s.setState(StateConnected)
			s.readLoop(ctx, conn)
			_ = conn.Close()
		}

		if ctx.Err() != nil {
			return
		}
		s.setState(StateReconnecting)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn ClientConn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("notify: connection lost: %v", err)
			}
			return
		}
		s.handle(raw)
	}
}

// handle decodes one frame. Malformed payloads and unknown event types are
// logged and dropped; the subscription keeps running.
func (s *Subscriber) handle(raw []byte) {
	var n domain.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		log.Printf("notify: dropping malformed payload: %v", err)
		return
	}
	if n.Type != domain.NotificationNewQuiz {
		log.Printf("notify: dropping unknown event type %q", n.Type)
		return
	}

	s.onNotify(n)
	s.resetDismissTimer()
}

func (s *Subscriber) resetDismissTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dismiss != nil {
		s.dismiss.Stop()
	}
	s.dismiss = time.AfterFunc(s.dismissAfter, s.onDismiss)
}

func (s *Subscriber) stopDismissTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
}

func (s *Subscriber) setState(state ConnState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// WSTransport dials the server's websocket notification endpoint.
type WSTransport struct {
	URL    string
	Dialer *websocket.Dialer
}

func (t *WSTransport) Dial(ctx context.Context) (ClientConn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		return nil, err
	}
	return &wsClientConn{conn: conn}, nil
}

type wsClientConn struct {
	conn *websocket.Conn
}

func (c *wsClientConn) ReadMessage() ([]byte, error) {
	_, raw, err := c.conn.ReadMessage()
	return raw, err
}

func (c *wsClientConn) Close() error {
	return c.conn.Close()
}
