// Package history keeps per-session conversation logs in Redis, bounded in
// both length and lifetime.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mars-analytics/rag-platform/internal/models"
)

const keyPrefix = "chat_history:"

// Store is the conversation log the orchestrator reads and appends to.
type Store interface {
	Append(ctx context.Context, sessionID string, entries ...models.HistoryEntry) error
	Read(ctx context.Context, sessionID string) ([]models.HistoryEntry, error)
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore is the production Store backed by one Redis list per session.
type RedisStore struct {
	client *redis.Client
	limit  int64
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an established Redis connection. limit bounds the
// entries kept per session; ttl bounds how long an idle session survives.
func NewRedisStore(client *redis.Client, limit int, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, limit: int64(limit), ttl: ttl}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Append pushes the entries onto the session's list. Every write re-trims
// the list to the newest entries and refreshes the expiry, so the bound and
// the TTL hold no matter how the session is used.
func (s *RedisStore) Append(ctx context.Context, sessionID string, entries ...models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	key := sessionKey(sessionID)
	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to encode history entry: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -s.limit, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history for session %s: %w", sessionID, err)
	}
	return nil
}

// Read returns the session's entries oldest first.
func (s *RedisStore) Read(ctx context.Context, sessionID string) ([]models.HistoryEntry, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history for session %s: %w", sessionID, err)
	}

	entries := make([]models.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear deletes the session's history.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history for session %s: %w", sessionID, err)
	}
	return nil
}

// FormatForGenerator translates stored roles into the generation API's
// vocabulary. The stored form keeps "assistant"; the translation to "model"
// happens only here, at read time.
func FormatForGenerator(entries []models.HistoryEntry) []models.HistoryEntry {
	formatted := make([]models.HistoryEntry, len(entries))
	for i, entry := range entries {
		if entry.Role == models.SpeakerAssistant {
			entry.Role = models.SpeakerModel
		}
		formatted[i] = entry
	}
	return formatted
}
