package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"classquiz-service/internal/domain"
)

func TestWSTransportRoundTrip(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		registry.Add(conn)
	}))
	defer server.Close()

	transport := &WSTransport{URL: "ws" + server.URL[len("http"):]}
	conn, err := transport.Dial(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	registry.Broadcast(domain.NewQuizNotification("Transport Check"))

	type read struct {
		raw []byte
		err error
	}
	got := make(chan read, 1)
	go func() {
		raw, err := conn.ReadMessage()
		got <- read{raw, err}
	}()

	select {
	case r := <-got:
		if r.err != nil {
			t.Fatalf("read: %v", r.err)
		}
		var n domain.Notification
		if err := json.Unmarshal(r.raw, &n); err != nil {
			t.Fatalf("decode frame %s: %v", r.raw, err)
		}
		if n.Type != domain.NotificationNewQuiz || n.Title != "Transport Check" {
			t.Fatalf("unexpected event %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for frame")
	}
}
