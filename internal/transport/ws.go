package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"devicehub/internal/models"
)

// WSPublisher forwards actuation messages to the websocket gateway that
// holds the device's long-lived connection. The gateway fans the message
// out to the device; no delivery confirmation flows back.
type WSPublisher struct {
	gatewayURL string
	logger     *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSPublisher creates a publisher that dials the gateway lazily on
// first publish.
func NewWSPublisher(gatewayURL string, logger *zap.Logger) *WSPublisher {
	return &WSPublisher{gatewayURL: gatewayURL, logger: logger}
}

// Publish writes the message to the gateway connection, redialing once
// after a stale connection is detected.
func (p *WSPublisher) Publish(ctx context.Context, msg models.ActuationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		if err := p.dial(ctx); err != nil {
			return err
		}
	}
	if err := p.conn.WriteJSON(msg); err != nil {
		p.logger.Warn("ws write failed, redialing", zap.Error(err))
		_ = p.conn.Close()
		p.conn = nil
		if err := p.dial(ctx); err != nil {
			return err
		}
		return p.conn.WriteJSON(msg)
	}
	return nil
}

func (p *WSPublisher) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dial ws gateway %s: %w", p.gatewayURL, err)
	}
	p.conn = conn
	return nil
}

// Close drops the gateway connection.
func (p *WSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
