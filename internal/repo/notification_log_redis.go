package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// DefaultRedisKeyPrefix namespaces log entries in a shared Redis.
const DefaultRedisKeyPrefix = "notification_log:"

// RedisLogStore keeps the notification log in Redis, one key per event key.
// SETNX makes the first writer win, which gives the same uniqueness guarantee
// as the Postgres constraint.
type RedisLogStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisLogStore constructs a RedisLogStore. An empty prefix selects
// DefaultRedisKeyPrefix.
func NewRedisLogStore(client redis.Cmdable, prefix string) *RedisLogStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisLogStore{client: client, prefix: prefix}
}

type redisLogEntry struct {
	ID          uuid.UUID  `json:"id"`
	EventKey    string     `json:"event_key"`
	UserID      uuid.UUID  `json:"user_id"`
	TripID      uuid.UUID  `json:"trip_id"`
	StopID      *uuid.UUID `json:"stop_id,omitempty"`
	TriggerType string     `json:"trigger_type"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	SentAt      time.Time  `json:"sent_at"`
}

func (s *RedisLogStore) key(eventKey string) string {
	return s.prefix + eventKey
}

// Exists reports whether the key for eventKey is present.
func (s *RedisLogStore) Exists(ctx context.Context, eventKey string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventKey)).Result()
	if err != nil {
		return false, fmt.Errorf("repo.RedisLogStore.Exists: %w", err)
	}
	return n > 0, nil
}

// Insert stores entry unless its event key is already taken, in which case
// it returns domain.ErrAlreadyExists.
func (s *RedisLogStore) Insert(ctx context.Context, entry domain.NotificationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(redisLogEntry{
		ID:          entry.ID,
		EventKey:    entry.EventKey,
		UserID:      entry.UserID,
		TripID:      entry.TripID,
		StopID:      entry.StopID,
		TriggerType: string(entry.TriggerType),
		Title:       entry.Title,
		Body:        entry.Body,
		SentAt:      entry.SentAt,
	})
	if err != nil {
		return fmt.Errorf("repo.RedisLogStore.Insert: marshal: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(entry.EventKey), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("repo.RedisLogStore.Insert: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get returns the log entry for eventKey, or domain.ErrNotFound.
func (s *RedisLogStore) Get(ctx context.Context, eventKey string) (domain.NotificationLog, error) {
	raw, err := s.client.Get(ctx, s.key(eventKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NotificationLog{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.RedisLogStore.Get: %w", err)
	}

	var e redisLogEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.RedisLogStore.Get: unmarshal: %w", err)
	}
	return domain.NotificationLog{
		ID:          e.ID,
		EventKey:    e.EventKey,
		UserID:      e.UserID,
		TripID:      e.TripID,
		StopID:      e.StopID,
		TriggerType: domain.TriggerType(e.TriggerType),
		Title:       e.Title,
		Body:        e.Body,
		SentAt:      e.SentAt,
	}, nil
}
