package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType identifies what a notification is about.
type EventType string

const (
	EventMatchOffered     EventType = "MATCH_OFFERED"
	EventMatchAccepted    EventType = "MATCH_ACCEPTED"
	EventMatchRejected    EventType = "MATCH_REJECTED"
	EventMatchExpired     EventType = "MATCH_EXPIRED"
	EventDonationComplete EventType = "DONATION_COMPLETED"
	EventBadgeAwarded     EventType = "BADGE_AWARDED"
	EventRequestExpired   EventType = "REQUEST_EXPIRED"
)

// Event is the payload published per recipient.
type Event struct {
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier delivers events to users. Delivery is best effort, failures never
// surface to the caller.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// RedisNotifier publishes events to per-user Redis channels that realtime
// consumers (websocket bridges, push relays) subscribe to.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, prefix string, logger *zap.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = "notifications"
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, prefix: prefix, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Sugar().Errorw("failed to encode notification",
			"type", event.Type, "user_id", event.UserID, "error", err)
		return
	}

	if err := n.client.Publish(ctx, n.prefix+event.UserID, payload).Err(); err != nil {
		n.logger.Sugar().Warnw("failed to publish notification",
			"type", event.Type, "user_id", event.UserID, "error", err)
	}
}

// NopNotifier discards all events. Used in tests and when Redis is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
