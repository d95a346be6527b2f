package transport

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"devicehub/internal/models"
)

// MQTTPublisher publishes actuation messages on the device command topic.
type MQTTPublisher struct {
	client mqtt.Client
	logger *zap.Logger
}

// NewMQTTClient connects to the broker.
func NewMQTTClient(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client mqtt.Client, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, logger: logger}
}

// Publish sends the message to devices/<id>/commands at QoS 1 without
// waiting for broker acknowledgement; delivery failures are logged only.
func (p *MQTTPublisher) Publish(_ context.Context, msg models.ActuationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("devices/%s/commands", msg.Content.DeviceID)
	token := p.client.Publish(topic, 1, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("mqtt publish failed",
				zap.String("topic", topic), zap.Error(token.Error()))
		}
	}()
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
