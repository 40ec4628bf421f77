package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oggyb/nearmatch/internal/cache"
)

const (
	EventMatchCreate  = "Match Create"
	EventMatchSuccess = "Match Success"

	// DefaultStream is where RedisTracker appends events.
	DefaultStream = "analytics:events"
)

// Tracker records product events for a user.
type Tracker interface {
	Track(ctx context.Context, userID uint64, event string, props map[string]any) error
}

// RedisTracker appends events to a capped Redis stream that an exporter
// drains into the analytics backend.
type RedisTracker struct {
	cache  *cache.RedisCache
	stream string
	maxLen int64
	now    func() time.Time
}

func NewRedisTracker(c *cache.RedisCache, now func() time.Time) *RedisTracker {
	return &RedisTracker{cache: c, stream: DefaultStream, maxLen: 100_000, now: now}
}

func (t *RedisTracker) Track(ctx context.Context, userID uint64, event string, props map[string]any) error {
	values := map[string]interface{}{
		"user_id": userID,
		"event":   event,
		"time":    t.now().UTC().UnixMilli(),
	}
	if len(props) > 0 {
		raw, err := json.Marshal(props)
		if err != nil {
			return err
		}
		values["props"] = string(raw)
	}
	return t.cache.AppendEvent(ctx, t.stream, values, t.maxLen)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Track(context.Context, uint64, string, map[string]any) error { return nil }
