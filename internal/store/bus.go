package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const changeChannelPrefix = "roster:changes:"

// ChangeBus fans out per-teacher change notifications across writers.
// Every committed write publishes the affected document id; subscribers
// re-query on receipt.
type ChangeBus struct {
	client *redis.Client
}

// NewChangeBus wraps a redis client as a change-notification bus.
func NewChangeBus(client *redis.Client) *ChangeBus {
	return &ChangeBus{client: client}
}

// Publish announces a committed change to a teacher's roster.
func (b *ChangeBus) Publish(ctx context.Context, teacherID, op, docID string) error {
	payload := fmt.Sprintf("%s:%s", op, docID)
	return b.client.Publish(ctx, changeChannelPrefix+teacherID, payload).Err()
}

// Listen opens a pubsub subscription for one teacher's change channel.
// The caller owns closing the returned PubSub.
func (b *ChangeBus) Listen(ctx context.Context, teacherID string) *redis.PubSub {
	return b.client.Subscribe(ctx, changeChannelPrefix+teacherID)
}
