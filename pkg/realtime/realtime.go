// Package realtime carries best-effort "something changed" notifications per
// family. Subscribers use them only as a hint to refetch; a dropped or late
// message never affects correctness.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

type Subscriber interface {
	// Subscribe streams the family's changes until ctx is done, then closes
	// the returned channel.
	Subscribe(ctx context.Context, familyID uuid.UUID) (<-chan models.Change, error)
}

// Channel is the pub/sub channel a family's changes are published on.
func Channel(familyID uuid.UUID) string {
	return fmt.Sprintf("justus:family:%s:changes", familyID)
}

const subscriberBuffer = 16

// RedisBus publishes and subscribes over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewRedisBus(client *redis.Client, log *zap.SugaredLogger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, change models.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, Channel(change.FamilyID), payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, familyID uuid.UUID) (<-chan models.Change, error) {
	sub := b.client.Subscribe(ctx, Channel(familyID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan models.Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change models.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					b.log.Warnw("Dropping malformed change", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case out <- change:
				default:
					// Slow consumer; it will refetch on the next change anyway.
				}
			}
		}
	}()
	return out, nil
}

// Nop is used when no bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.Change) error { return nil }

func (Nop) Subscribe(ctx context.Context, _ uuid.UUID) (<-chan models.Change, error) {
	out := make(chan models.Change)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}
