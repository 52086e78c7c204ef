package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func inboxKey(accountID string) string {
	return fmt.Sprintf("notifications:%s", accountID)
}

func channelName(accountID string) string {
	return fmt.Sprintf("notifications:live:%s", accountID)
}

func seenKey(accountID, eventID string) string {
	return fmt.Sprintf("notifications:seen:%s:%s", accountID, eventID)
}

// RedisTransport appends events to a capped per-account list and publishes
// them for connected clients.
type RedisTransport struct {
	client *redis.Client
	cap    int64
}

func NewRedisTransport(client *redis.Client, inboxCap int64) *RedisTransport {
	return &RedisTransport{client: client, cap: inboxCap}
}

func (t *RedisTransport) Accept(ctx context.Context, event models.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	key := inboxKey(event.AccountID)
	if err := t.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	if t.cap > 0 {
		if err := t.client.LTrim(ctx, key, -t.cap, -1).Err(); err != nil {
			return fmt.Errorf("trim inbox: %w", err)
		}
	}
	if err := t.client.Publish(ctx, channelName(event.AccountID), data).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Inbox is the receiving side. Drain hands each event id to a client once,
// however many times the transport delivered it.
type Inbox struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewInbox(client *redis.Client, dedupeTTL time.Duration, logger *zap.Logger) *Inbox {
	return &Inbox{client: client, ttl: dedupeTTL, logger: logger}
}

// Drain returns the unseen events queued for accountID. An entry leaves the
// list only after it has been marked seen, so a Redis failure part way
// through leaves the rest queued for the next call.
func (i *Inbox) Drain(ctx context.Context, accountID string) ([]models.NotificationEvent, error) {
	key := inboxKey(accountID)

	raws, err := i.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var (
		events    []models.NotificationEvent
		processed int
		markErr   error
	)
	for _, raw := range raws {
		var event models.NotificationEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			i.logger.Warn("Skipping malformed notification", zap.String("account_id", accountID), zap.Error(err))
			processed++
			continue
		}

		fresh, err := i.client.SetNX(ctx, seenKey(accountID, event.EventID), 1, i.ttl).Result()
		if err != nil {
			markErr = fmt.Errorf("mark notification seen: %w", err)
			break
		}
		processed++
		if fresh {
			events = append(events, event)
		}
	}

	if processed > 0 {
		// New events are appended at the tail, so the processed prefix is
		// still at the head.
		if err := i.client.LTrim(ctx, key, int64(processed), -1).Err(); err != nil {
			i.logger.Warn("Failed to trim drained inbox",
				zap.String("account_id", accountID),
				zap.Int("processed", processed),
				zap.Error(err))
		}
	}

	if markErr != nil {
		if len(events) == 0 {
			return nil, markErr
		}
		i.logger.Warn("Inbox drained partially",
			zap.String("account_id", accountID),
			zap.Int("returned", len(events)),
			zap.Int("remaining", len(raws)-processed),
			zap.Error(markErr))
	}
	return events, nil
}
