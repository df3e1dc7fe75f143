package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/cache"
	"github.com/vestacare/credops/common/logger"
)

// identityStore resolves external user ids to agent records
type identityStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Agent, error)
}

// IdentityService resolves external identity-provider user ids to
// internal Agent records, with an optional cache in front of the store.
type IdentityService struct {
	repo     identityStore
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewIdentityService creates a new identity service. cache may be nil.
func NewIdentityService(repo identityStore, c cache.Cache, ttl time.Duration, log *logger.Logger) *IdentityService {
	return &IdentityService{
		repo:     repo,
		cache:    c,
		cacheTTL: ttl,
		log:      log,
	}
}

// Resolve maps an external user id to an agent. Callers without an
// agent record get Unauthorized; an empty user id never resolves.
func (s *IdentityService) Resolve(ctx context.Context, userID string) (*models.Agent, error) {
	if userID == "" {
		return nil, apperr.Unauthorizedf("missing user identity")
	}

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, cacheKey(userID)); err == nil && ok {
			agent := &models.Agent{}
			if err := json.Unmarshal(data, agent); err == nil {
				return agent, nil
			}
			// Corrupt cache entry: fall through to the store
			s.log.Warn("discarding unreadable cached agent", "user_id", userID)
		}
	}

	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(agent); err == nil {
			if err := s.cache.Set(ctx, cacheKey(userID), data, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache agent", "user_id", userID, "error", err)
			}
		}
	}

	return agent, nil
}

// Invalidate drops a cached agent after role changes or removal
func (s *IdentityService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(userID)); err != nil {
		s.log.Warn("failed to invalidate cached agent", "user_id", userID, "error", err)
	}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("agent:user:%s", userID)
}
