package record

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/redis/go-redis/v9"
)

const (
	historyKey = "emotion:history"
	historyTTL = 24 * time.Hour
)

// HistoryStore mirrors the rolling history in redis so it survives restarts.
type HistoryStore struct {
	redis *redis.Client
	limit int
}

func NewHistoryStore(redisClient *redis.Client) *HistoryStore {
	return &HistoryStore{redis: redisClient, limit: detection.DefaultHistoryLimit}
}

func (s *HistoryStore) Push(ctx context.Context, entry detection.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(s.limit-1))
	pipe.Expire(ctx, historyKey, historyTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns the stored entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context) ([]detection.HistoryEntry, error) {
	raw, err := s.redis.LRange(ctx, historyKey, 0, int64(s.limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]detection.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var e detection.HistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *HistoryStore) Clear(ctx context.Context) error {
	return s.redis.Del(ctx, historyKey).Err()
}
