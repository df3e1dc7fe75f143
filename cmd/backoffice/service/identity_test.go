package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestacare/credops/cmd/backoffice/models"
	"github.com/vestacare/credops/common/apperr"
	"github.com/vestacare/credops/common/logger"
)

type countingAgentSource struct {
	agent *models.Agent
	calls int
}

func (s *countingAgentSource) GetByUserID(ctx context.Context, userID string) (*models.Agent, error) {
	s.calls++
	if s.agent == nil || s.agent.UserID != userID {
		return nil, apperr.Unauthorizedf("no agent record for user: %s", userID)
	}
	return s.agent, nil
}

type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestResolveCachesAgent(t *testing.T) {
	agent := testAgent(models.RoleUser)
	source := &countingAgentSource{agent: agent}
	c := newMapCache()
	svc := NewIdentityService(source, c, time.Minute, logger.New("error", "text"))

	first, err := svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, first.ID)
	assert.Equal(t, 1, source.calls)

	second, err := svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, second.ID)
	assert.Equal(t, 1, source.calls, "second resolve must hit the cache")
}

func TestResolveWithoutCache(t *testing.T) {
	agent := testAgent(models.RoleUser)
	source := &countingAgentSource{agent: agent}
	svc := NewIdentityService(source, nil, time.Minute, logger.New("error", "text"))

	_, err := svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestResolveEmptyUserID(t *testing.T) {
	svc := NewIdentityService(&countingAgentSource{}, nil, time.Minute, logger.New("error", "text"))

	_, err := svc.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
}

func TestResolveCorruptCacheEntryFallsThrough(t *testing.T) {
	agent := testAgent(models.RoleUser)
	source := &countingAgentSource{agent: agent}
	c := newMapCache()
	c.data["agent:user:"+agent.UserID] = []byte("{not json")
	svc := NewIdentityService(source, c, time.Minute, logger.New("error", "text"))

	resolved, err := svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, agent.ID, resolved.ID)
	assert.Equal(t, 1, source.calls)
}

func TestInvalidateDropsCachedAgent(t *testing.T) {
	agent := testAgent(models.RoleUser)
	source := &countingAgentSource{agent: agent}
	c := newMapCache()
	svc := NewIdentityService(source, c, time.Minute, logger.New("error", "text"))

	_, err := svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)

	svc.Invalidate(context.Background(), agent.UserID)

	_, err = svc.Resolve(context.Background(), agent.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
