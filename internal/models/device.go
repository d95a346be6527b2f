package models

// DeviceComponent is one component instance installed on a device.
type DeviceComponent struct {
	ID        string `json:"cid"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CatalogID string `json:"catalogId"`
}

// Device is the slice of device metadata this core reads: identity,
// owning gateway and installed components. The device registry itself is
// owned by an external collaborator.
type Device struct {
	ID         string            `json:"deviceId"`
	GatewayID  string            `json:"gatewayId"`
	AccountID  string            `json:"accountId"`
	Name       string            `json:"name"`
	Components []DeviceComponent `json:"components"`
}

// ActuatorParameter declares the valid-value grammar for one actuator
// parameter: a range ("0-10"), an enumerated list ("on,off") or a single
// literal value.
type ActuatorParameter struct {
	Name   string `json:"name"`
	Values string `json:"values"`
}

// Actuator is the command definition of an actuator catalog component.
type Actuator struct {
	CommandString string              `json:"commandString"`
	Parameters    []ActuatorParameter `json:"parameters"`
}

// CatalogComponent is a component-catalog entry. Actuator is nil for
// sensor-only components.
type CatalogComponent struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Type      string    `json:"type"`
	Actuator  *Actuator `json:"actuator,omitempty"`
}
