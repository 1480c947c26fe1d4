package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"citas/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	prefsKeyPrefix   = "citas:prefs:"
	contactKeyPrefix = "citas:contact:"
)

// RedisLocalStore keeps reminder preferences and contacts in Redis as JSON
// blobs. Keys have no TTL: preferences outlive the session that wrote them.
type RedisLocalStore struct {
	client *redis.Client
}

func NewRedisLocalStore(client *redis.Client) *RedisLocalStore {
	return &RedisLocalStore{client: client}
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func prefsKey(ownerID string) string {
	return fmt.Sprintf("%s%s", prefsKeyPrefix, ownerID)
}

func contactKey(ownerID string) string {
	return fmt.Sprintf("%s%s", contactKeyPrefix, ownerID)
}

func (s *RedisLocalStore) Load(ctx context.Context, ownerID string) (models.ReminderPreferences, error) {
	prefs := models.ReminderPreferences{}
	found, err := s.getJSON(ctx, prefsKey(ownerID), &prefs)
	if err != nil {
		return nil, fmt.Errorf("load reminder preferences: %w", err)
	}
	if !found || prefs == nil {
		return models.ReminderPreferences{}, nil
	}
	return prefs, nil
}

func (s *RedisLocalStore) Save(ctx context.Context, ownerID string, prefs models.ReminderPreferences) error {
	if err := s.setJSON(ctx, prefsKey(ownerID), prefs); err != nil {
		return fmt.Errorf("save reminder preferences: %w", err)
	}
	return nil
}

func (s *RedisLocalStore) SaveContact(ctx context.Context, user models.User) error {
	if err := s.setJSON(ctx, contactKey(user.ID), user); err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

func (s *RedisLocalStore) Contact(ctx context.Context, ownerID string) (*models.User, error) {
	var u models.User
	found, err := s.getJSON(ctx, contactKey(ownerID), &u)
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (s *RedisLocalStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisLocalStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}
