package main

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/vestacare/credops/cmd/backoffice/service"
	"github.com/vestacare/credops/common/logger"
)

// Subscriber listens to the assignment channel and forwards claim
// events to the hub
type Subscriber struct {
	redis *redis.Client
	hub   *Hub
	log   *logger.Logger
}

// NewSubscriber creates a new subscriber
func NewSubscriber(redisClient *redis.Client, hub *Hub, log *logger.Logger) *Subscriber {
	return &Subscriber{
		redis: redisClient,
		hub:   hub,
		log:   log,
	}
}

// Start subscribes and pumps events until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, service.AssignmentChannel)
	defer pubsub.Close()

	// Confirm the subscription before consuming
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	s.log.Info("subscribed to assignment events", "channel", service.AssignmentChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("subscriber stopping")
			return nil

		case msg := <-ch:
			if msg == nil {
				continue
			}

			event := &service.AssignmentEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				s.log.Warn("discarding malformed assignment event", "error", err)
				continue
			}

			s.hub.broadcast <- &Message{
				AgentID: event.AgentID.String(),
				Data:    []byte(msg.Payload),
			}
		}
	}
}
