package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vestacare/credops/common/logger"
	rediscommon "github.com/vestacare/credops/common/redis"
)

// AssignmentChannel is the pub/sub channel consumers (dashboards,
// notification workers) subscribe to for claim events
const AssignmentChannel = "credops:events:phase.assigned"

// AssignmentEvent is the payload published when a phase is claimed
type AssignmentEvent struct {
	PhaseID    uuid.UUID `json:"phase_id"`
	AgentID    uuid.UUID `json:"agent_id"`
	AgentName  string    `json:"agent_name"`
	PhaseName  string    `json:"phase_name"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Notifier publishes assignment events over Redis pub/sub. Best effort:
// a failed publish is logged and never fails the mutation, which has
// already committed.
type Notifier struct {
	redis *rediscommon.Client
	log   *logger.Logger
}

// NewNotifier creates a new notifier. redis may be nil, which disables
// publishing.
func NewNotifier(redis *rediscommon.Client, log *logger.Logger) *Notifier {
	return &Notifier{
		redis: redis,
		log:   log,
	}
}

// PhaseAssigned publishes a claim event
func (n *Notifier) PhaseAssigned(ctx context.Context, event *AssignmentEvent) {
	if n.redis == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Warn("failed to marshal assignment event", "error", err)
		return
	}

	if err := n.redis.Publish(ctx, AssignmentChannel, payload); err != nil {
		n.log.Warn("failed to publish assignment event",
			"phase_id", event.PhaseID,
			"error", err,
		)
	}
}
