package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
	"interview-ai-simulator/internal/domain/ports/repository"
	"interview-ai-simulator/internal/infra/metrics"
)

// Compile-time check
var _ repository.SessionCacheRepository = (*SessionCache)(nil)

// SessionCache is the volatile tier: one JSON blob per live session under
// interview:<id>, expiring after the configured inactivity window.
type SessionCache struct {
	client *Client
	ttl    time.Duration
}

func NewSessionCache(client *Client, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sessionID string) string { return "interview:" + sessionID }

func (c *SessionCache) Get(ctx context.Context, sessionID string) (*model.SessionState, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("session", "miss")
		return nil, domain.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("session cache get: %w", err)
	}
	metrics.IncCacheRequest("session", "hit")

	var state model.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("session cache decode: %w", err)
	}
	return &state, nil
}

func (c *SessionCache) Save(ctx context.Context, sessionID string, state *model.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session cache encode: %w", err)
	}
	if err := c.client.Set(ctx, sessionKey(sessionID), data, c.ttl); err != nil {
		return fmt.Errorf("session cache set: %w", err)
	}
	return nil
}

func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID))
}

func (c *SessionCache) Extend(ctx context.Context, sessionID string) error {
	return c.client.Expire(ctx, sessionKey(sessionID), c.ttl)
}
