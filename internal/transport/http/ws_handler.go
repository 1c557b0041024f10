package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"classquiz-service/internal/notify"
)

// WSHandler upgrades HTTP requests into notification-channel subscriptions.
// The channel is one-way: clients only listen for NEW_QUIZ events. Inbound
// frames are read and discarded so close frames and pings are processed.
type WSHandler struct {
	registry *notify.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *notify.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS registers the connection with the notification registry for the
// lifetime of the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	h.registry.Add(conn)
	defer func() {
		h.registry.Remove(conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
