package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel carrying a session's progress events.
func Channel(sessionID string) string {
	return "interview:" + sessionID + ":events"
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = p.rdb.Publish(ctx, Channel(e.SessionID), payload).Err()
}
