package main

import (
	"sync"

	"github.com/vestacare/credops/common/logger"
)

// allAgents is the hub key for dashboard clients watching every claim
const allAgents = "*"

// Hub maintains active WebSocket connections and routes claim events.
// Clients watch either a single agent's claims or all of them.
type Hub struct {
	// Map: agent id (or "*") → watchers
	connections map[string][]*Client
	mutex       sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	log *logger.Logger
}

// Message is one claim event routed to watchers of an agent
type Message struct {
	AgentID string
	Data    []byte
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		log:         log,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.log.Info("hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.routeMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.watch] = append(h.connections[client.watch], client)
	h.log.Debug("client registered",
		"watch", client.watch,
		"watchers", len(h.connections[client.watch]),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := h.connections[client.watch]
	for i, c := range clients {
		if c == client {
			h.connections[client.watch] = append(clients[:i], clients[i+1:]...)
			close(client.send)

			if len(h.connections[client.watch]) == 0 {
				delete(h.connections, client.watch)
			}

			h.log.Debug("client unregistered", "watch", client.watch)
			break
		}
	}
}

// routeMessage delivers a claim event to the claiming agent's watchers
// and to every all-agents dashboard
func (h *Hub) routeMessage(message *Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	targets := append([]*Client(nil), h.connections[message.AgentID]...)
	targets = append(targets, h.connections[allAgents]...)

	for _, client := range targets {
		select {
		case client.send <- message.Data:
		default:
			// Send buffer full, drop the slow client
			h.log.Warn("client send buffer full, closing connection", "watch", client.watch)
			close(client.send)
		}
	}
}

// ConnectionCount returns the total number of active connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.connections {
		count += len(clients)
	}
	return count
}
