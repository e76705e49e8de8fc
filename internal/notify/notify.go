package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

const userChannelPrefix = "notify:user:"

// Notifier delivers a best-effort message to one user. The return value is
// advisory only; no retry contract is owed by callers.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string, payload map[string]interface{}) bool
}

// Message is the envelope published to a user's channel. The push transport
// that consumes the channel is outside this repo.
type Message struct {
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RedisNotifier publishes notifications on per-user redis channels.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID, title, body string, payload map[string]interface{}) bool {
	raw, err := json.Marshal(Message{Title: title, Body: body, Payload: payload})
	if err != nil {
		log.Printf("notify: marshal for user %s failed: %v", userID, err)
		return false
	}
	if err := n.rdb.Publish(ctx, userChannelPrefix+userID, raw).Err(); err != nil {
		log.Printf("notify: publish to user %s failed: %v", userID, err)
		return false
	}
	return true
}
