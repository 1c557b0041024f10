package notify

import (
	"log"
	"sync"
	"time"

	"classquiz-service/internal/domain"
)

// writeTimeout bounds a single frame write; a peer that stopped reading
// cannot hold a writer goroutine past it.
const writeTimeout = 10 * time.Second

// sendBuffer is the per-listener queue depth. A listener whose queue is
// full is stalled and gets dropped.
const sendBuffer = 16

// Conn is the write side of one connected listener. *websocket.Conn
// satisfies it; tests inject fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// listener pairs a connection with its send queue. A dedicated goroutine
// drains the queue so one conn's slow write never delays another's.
type listener struct {
	conn Conn
	ch   chan domain.Notification
}

// Registry tracks the currently connected notification listeners and fans
// events out to them. It is created at process start, injected where
// needed, and closed at shutdown; there is no ambient global set.
type Registry struct {
	mu     sync.Mutex
	conns  map[Conn]*listener
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Conn]*listener)}
}

// Add registers a connection and starts its writer. Adding to a closed
// registry closes the connection immediately.
func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = c.Close()
		return
	}
	l := &listener{conn: c, ch: make(chan domain.Notification, sendBuffer)}
	r.conns[c] = l
	r.mu.Unlock()

	go r.writeLoop(l)
}

// Remove unregisters a connection and stops its writer. Removing an
// unknown connection is a no-op.
func (r *Registry) Remove(c Conn) {
	r.mu.Lock()
	if l, ok := r.conns[c]; ok {
		delete(r.conns, c)
		close(l.ch)
	}
	r.mu.Unlock()
}

// Len reports how many listeners are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Broadcast queues the notification for every registered connection and
// returns without waiting on any write. Delivery is best-effort and
// at-most-once: a listener that cannot keep up (full queue) or whose
// write fails is dropped, and the remaining listeners are unaffected.
// Broadcasting to an empty registry is a no-op.
func (r *Registry) Broadcast(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for c, l := range r.conns {
		select {
		case l.ch <- n:
		default:
			log.Printf("notify: dropping stalled listener, send queue full")
			delete(r.conns, c)
			close(l.ch)
			_ = c.Close()
		}
	}
}

// writeLoop drains one listener's queue in order. Queue channels are only
// closed under the registry mutex, so ending the range here is the sole
// exit path.
func (r *Registry) writeLoop(l *listener) {
	for n := range l.ch {
		_ = l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := l.conn.WriteJSON(n); err != nil {
			log.Printf("notify: dropping listener after send failure: %v", err)
			r.Remove(l.conn)
			_ = l.conn.Close()
			return
		}
	}
}

// Close drops and closes every connection and rejects further adds.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	conns := r.conns
	r.conns = make(map[Conn]*listener)
	r.mu.Unlock()

	for c, l := range conns {
		close(l.ch)
		_ = c.Close()
	}
}
