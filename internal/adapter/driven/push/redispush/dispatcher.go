// Package redispush queues push-notification summaries on a Redis list
// consumed by the external delivery worker.
package redispush

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

const dispatchTimeout = 2 * time.Second

// Dispatcher implements port.PushDispatcher.
type Dispatcher struct {
	client *redis.Client
	queue  string
}

func NewDispatcher(client *redis.Client, queue string) *Dispatcher {
	return &Dispatcher{
		client: client,
		queue:  queue,
	}
}

// Dispatch pushes the serialized summary onto the queue. Callers treat
// failures as log-only; a lost push notification is acceptable.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.PushNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode push notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue push notification: %w", err)
	}
	return nil
}

// Noop discards every notification. Used when no Redis endpoint is
// configured (standalone dev mode).
type Noop struct{}

func (Noop) Dispatch(ctx context.Context, n domain.PushNotification) error {
	return nil
}
