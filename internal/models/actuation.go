package models

import "time"

// Transport types a Connection Binding can carry.
const (
	TransportMQTT = "mqtt"
	TransportWS   = "ws"
)

// Parameter is one named value passed with an actuator command.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ComponentCommand addresses one actuator component with its parameters.
type ComponentCommand struct {
	ComponentID string      `json:"componentId"`
	Parameters  []Parameter `json:"parameters"`
}

// ComplexCommand is a named, reusable ordered list of component commands,
// unique per account by name.
type ComplexCommand struct {
	ID        string             `json:"id"`
	AccountID string             `json:"accountId"`
	Name      string             `json:"name"`
	Commands  []ComponentCommand `json:"commands"`
}

// ActuationContent is the payload of one dispatched device command.
type ActuationContent struct {
	DomainID    string      `json:"domainId"`
	DeviceID    string      `json:"deviceId"`
	GatewayID   string      `json:"gatewayId"`
	ComponentID string      `json:"componentId"`
	Command     string      `json:"command"`
	Params      []Parameter `json:"params"`
}

// MessageTypeCommand marks an actuation message as a device command.
const MessageTypeCommand = "command"

// ActuationMessage is the envelope handed to a transport publisher.
type ActuationMessage struct {
	Type      string           `json:"type"`
	Transport string           `json:"transport"`
	Content   ActuationContent `json:"content"`
}

// Actuation is the append-only audit record of one dispatched command.
// One record is written per dispatch regardless of downstream delivery.
type Actuation struct {
	ID          string      `json:"id"`
	Created     time.Time   `json:"created"`
	Transport   string      `json:"transport"`
	DeviceID    string      `json:"deviceId"`
	GatewayID   string      `json:"gatewayId"`
	ComponentID string      `json:"componentId"`
	Command     string      `json:"command"`
	Parameters  []Parameter `json:"parameters"`
	AccountID   string      `json:"accountId"`
}

// ConnectionBinding is the most recent transport a device was observed
// connecting through. Written by the session tracker, read-only here.
type ConnectionBinding struct {
	DeviceID  string    `json:"deviceId"`
	Transport string    `json:"transport"`
	Broker    string    `json:"broker"`
	LastSeen  time.Time `json:"lastSeen"`
}
