package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"goldbook/internal/models"
	"goldbook/internal/service"
)

const sessionKey = "goldbook:session:current"

// SessionStore persists the single current session under one redis key,
// so a signed-in account survives process restarts without a directory call.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore returns redis-backed store. A zero ttl means no expiry.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Save serializes and stores the account.
func (s *SessionStore) Save(ctx context.Context, account *models.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey, data, s.ttl).Err()
}

// Load returns the persisted account, or service.ErrNoSession when absent.
func (s *SessionStore) Load(ctx context.Context) (*models.Account, error) {
	result, err := s.client.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, service.ErrNoSession
		}
		return nil, err
	}
	var account models.Account
	if err := json.Unmarshal([]byte(result), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete removes the persisted session.
func (s *SessionStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey).Err()
}
