// Package bindings reads the per-device Connection Binding: the
// transport and broker of a device's most recent inbound connection.
// Bindings are written by the session tracker; this store only reads
// the latest entry.
package bindings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"devicehub/internal/models"
)

const keyFormat = "device:%s:binding"

// Store reads connection bindings from Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a binding reader over an existing Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Latest returns the most recent binding for a device, or nil when the
// device has never connected.
func (s *Store) Latest(ctx context.Context, deviceID string) (*models.ConnectionBinding, error) {
	fields, err := s.client.HGetAll(ctx, fmt.Sprintf(keyFormat, deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read binding for device %s: %w", deviceID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	b := &models.ConnectionBinding{
		DeviceID:  deviceID,
		Transport: fields["transport"],
		Broker:    fields["broker"],
	}
	if ts, err := strconv.ParseInt(fields["last_seen"], 10, 64); err == nil {
		b.LastSeen = time.Unix(ts, 0)
	}
	return b, nil
}
