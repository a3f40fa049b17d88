package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache is a Redis read-through cache in front of the session
// store, keyed by token. Entries carry a TTL bound to the session's
// absolute expiry, so Redis drops them on its own once they can no
// longer validate. The cache is optional: a nil *SessionCache is safe
// to call and behaves as a permanent miss.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(redisURL string) (*SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionCache{client: client}, nil
}

func sessionKey(token string) string {
	return "session:" + token
}

// Set caches a session under its token.
func (sc *SessionCache) Set(ctx context.Context, session *model.Session) error {
	if sc == nil {
		return nil
	}
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := sc.client.Set(ctx, sessionKey(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

// Get returns the cached session for token, or (nil, nil) on a miss.
func (sc *SessionCache) Get(ctx context.Context, token string) (*model.Session, error) {
	if sc == nil {
		return nil, nil
	}

	data, err := sc.client.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	// The token is excluded from JSON, so restore it from the key.
	session.Token = token

	if time.Now().After(session.ExpiresAt) {
		sc.Delete(ctx, token)
		return nil, nil
	}

	return &session, nil
}

// Delete evicts the cached session for token.
func (sc *SessionCache) Delete(ctx context.Context, token string) error {
	if sc == nil {
		return nil
	}
	if err := sc.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}

func (sc *SessionCache) IsConnected() bool {
	if sc == nil || sc.client == nil {
		return false
	}
	return sc.client.Ping(context.Background()).Err() == nil
}

func (sc *SessionCache) Close() error {
	if sc == nil {
		return nil
	}
	return sc.client.Close()
}
