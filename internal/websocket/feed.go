package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// UnreadChannel carries "unread count changed" events between instances.
const UnreadChannel = "notifications:unread"

type unreadEvent struct {
	UserID string `json:"user_id"`
}

// UnreadCounter re-derives a user's unread count from the database.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Feed relays unread-count changes from Redis pub/sub to local WebSocket
// clients. Events carry only the user id; counts are always re-read, so
// duplicated or reordered events are harmless.
type Feed struct {
	redisClient *redis.Client
	hub         *Hub
	counter     UnreadCounter
	logger      *slog.Logger
}

func NewFeed(redisClient *redis.Client, hub *Hub, counter UnreadCounter, logger *slog.Logger) *Feed {
	return &Feed{
		redisClient: redisClient,
		hub:         hub,
		counter:     counter,
		logger:      logger,
	}
}

// PublishUnread announces that userID's unread count changed.
func (f *Feed) PublishUnread(ctx context.Context, userID string) error {
	payload, err := json.Marshal(unreadEvent{UserID: userID})
	if err != nil {
		return fmt.Errorf("encoding unread event: %w", err)
	}
	if err := f.redisClient.Publish(ctx, UnreadChannel, payload).Err(); err != nil {
		return fmt.Errorf("publishing unread event: %w", err)
	}
	return nil
}

// Run subscribes to the channel and pushes fresh counts until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	pubsub := f.redisClient.Subscribe(ctx, UnreadChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", UnreadChannel, err)
	}
	f.logger.Info("realtime feed subscribed", "channel", UnreadChannel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			f.handle(ctx, msg.Payload)
		}
	}
}

func (f *Feed) handle(ctx context.Context, payload string) {
	var event unreadEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil || event.UserID == "" {
		f.logger.Warn("ignoring malformed unread event", "payload", payload)
		return
	}

	count, err := f.counter.CountUnread(ctx, event.UserID)
	if err != nil {
		f.logger.Error("counting unread notifications", "error", err, "user_id", event.UserID)
		return
	}

	f.hub.PushUnread(event.UserID, count)
}
