package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vestacare/credops/common/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from a different origin than the API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the WebSocket endpoint for claim event feeds
type Server struct {
	hub *Hub
	log *logger.Logger
}

// NewServer creates a new server
func NewServer(hub *Hub, log *logger.Logger) *Server {
	return &Server{
		hub: hub,
		log: log,
	}
}

// HandleWebSocket upgrades the connection and registers the client.
// ?agent_id=<uuid> narrows the feed to one agent's claims; omitting it
// subscribes to every claim.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	watch := r.URL.Query().Get("agent_id")
	if watch == "" {
		watch = allAgents
	} else if _, err := uuid.Parse(watch); err != nil {
		http.Error(w, "invalid agent_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, watch, s.log)
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}
