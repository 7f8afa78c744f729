package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// DefaultStream is the stream a push-gateway worker consumes.
const DefaultStream = "notifications:outbound"

// RedisStream hands notifications to a push gateway through a Redis stream.
// Delivery to devices happens in the consumer; a successful XADD is a
// successful send from the engine's point of view.
type RedisStream struct {
	client redis.Cmdable
	stream string
	maxLen int64
	now    func() time.Time
}

// NewRedisStream constructs a RedisStream dispatcher. An empty stream selects
// DefaultStream. maxLen > 0 caps the stream length with approximate trimming.
func NewRedisStream(client redis.Cmdable, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen, now: time.Now}
}

// Send appends one entry with user_id, title, body and queued_at fields.
func (d *RedisStream) Send(ctx context.Context, userID uuid.UUID, title, body string) error {
	args := &redis.XAddArgs{
		Stream: d.stream,
		ID:     "*",
		Values: map[string]any{
			"user_id":   userID.String(),
			"title":     title,
			"body":      body,
			"queued_at": d.now().UTC().Format(time.RFC3339),
		},
	}
	if d.maxLen > 0 {
		args.MaxLen = d.maxLen
		args.Approx = true
	}

	if err := d.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("dispatch.RedisStream.Send: %w: %w", domain.ErrDispatch, err)
	}
	return nil
}
