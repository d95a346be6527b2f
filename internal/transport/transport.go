// Package transport delivers actuation messages to devices over their
// currently-active connector. Publishing is fire-and-forget: callers get
// an error only when the message never left the process.
package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"devicehub/internal/models"
)

// Publisher delivers one actuation message over a concrete connector.
type Publisher interface {
	Publish(ctx context.Context, msg models.ActuationMessage) error
}

// Registry routes messages to the publisher registered for their
// transport type.
type Registry struct {
	publishers map[string]Publisher
	logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		publishers: make(map[string]Publisher),
		logger:     logger,
	}
}

// Register binds a publisher to a transport type, replacing any previous
// binding for that type.
func (r *Registry) Register(transportType string, p Publisher) {
	r.publishers[transportType] = p
}

// Publish routes msg to the publisher for msg.Transport.
func (r *Registry) Publish(ctx context.Context, msg models.ActuationMessage) error {
	p, ok := r.publishers[msg.Transport]
	if !ok {
		return fmt.Errorf("no publisher registered for transport %q", msg.Transport)
	}
	r.logger.Debug("publishing actuation message",
		zap.String("transport", msg.Transport),
		zap.String("device_id", msg.Content.DeviceID),
		zap.String("command", msg.Content.Command))
	return p.Publish(ctx, msg)
}
