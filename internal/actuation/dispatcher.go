package actuation

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devicehub/internal/bus"
	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
	"devicehub/internal/transport"
)

// Dispatcher validates directly-issued command batches against device and
// actuator metadata, publishes them on the matching transport and records
// the audit trail. Validation is strictly fail-fast: the first offending
// parameter aborts the whole batch before any side effect.
type Dispatcher struct {
	commands   ComplexCommandStore
	devices    DeviceStore
	bindings   BindingReader
	actuations ActuationStore
	transports transport.Publisher
	bus        *bus.Bus
	logger     *zap.Logger
}

// NewDispatcher wires the dispatcher's collaborators.
func NewDispatcher(commands ComplexCommandStore, devices DeviceStore, bindings BindingReader,
	actuations ActuationStore, transports transport.Publisher, b *bus.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		commands:   commands,
		devices:    devices,
		bindings:   bindings,
		actuations: actuations,
		transports: transports,
		bus:        b,
		logger:     logger,
	}
}

// resolvedCommand is one component command bound to its owning device and
// actuator definition.
type resolvedCommand struct {
	device    *models.Device
	component models.DeviceComponent
	actuator  *models.Actuator
	params    []models.Parameter
}

// Command validates and dispatches a batch of component commands plus the
// expansion of the named complex commands. A missing device, component or
// complex command fails the whole batch; so does the first parameter that
// falls outside its declared value spec. Only a fully valid batch is
// published and persisted.
func (d *Dispatcher) Command(ctx context.Context, accountID string, commands []models.ComponentCommand, complexNames []string) error {
	all := slices.Clone(commands)
	for _, name := range complexNames {
		cc, err := d.commands.GetComplexCommand(ctx, accountID, name)
		if err != nil {
			if db.IsNoRows(err) {
				return errs.NewNotFound(errs.CodeComplexNotFound, name)
			}
			return &errs.InternalError{Err: err}
		}
		all = append(all, cc.Commands...)
	}

	resolved, err := d.validate(ctx, accountID, all)
	if err != nil {
		return err
	}

	msgs := make([]models.ActuationMessage, 0, len(resolved))
	var savingErr error
	for _, rc := range resolved {
		msg := d.buildMessage(ctx, accountID, rc)
		if err := d.Send(ctx, msg); err != nil {
			// Publish is fire-and-forget; a connector refusing the
			// message is logged, the rest of the batch proceeds.
			d.logger.Warn("command publish failed",
				zap.String("device_id", msg.Content.DeviceID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
		if err := d.Persist(ctx, accountID, msg); err != nil && savingErr == nil {
			savingErr = err
		}
	}

	if len(msgs) > 0 {
		d.bus.PublishCommandIssued(bus.CommandIssued{AccountID: accountID, Messages: msgs})
	}
	return savingErr
}

// validate resolves every command's device and actuator and runs the
// parameter matcher over every declared parameter. First error wins.
func (d *Dispatcher) validate(ctx context.Context, accountID string, cmds []models.ComponentCommand) ([]resolvedCommand, error) {
	resolved := make([]resolvedCommand, 0, len(cmds))
	for _, cmd := range cmds {
		dev, err := d.devices.GetDeviceByComponent(ctx, accountID, cmd.ComponentID)
		if err != nil {
			if db.IsNoRows(err) {
				return nil, errs.NewNotFound(errs.CodeComponentNotFound, cmd.ComponentID)
			}
			return nil, &errs.InternalError{Err: err}
		}

		comp, ok := findComponent(dev, cmd.ComponentID)
		if !ok {
			return nil, errs.NewNotFound(errs.CodeComponentNotFound, cmd.ComponentID)
		}

		cat, err := d.devices.FindCatalogComponent(ctx, accountID, comp.CatalogID)
		if err != nil {
			if db.IsNoRows(err) {
				return nil, errs.NewNotFound(errs.CodeComponentNotFound, cmd.ComponentID)
			}
			return nil, &errs.InternalError{Err: err}
		}
		if cat.Actuator == nil {
			return nil, errs.NewNotFound(errs.CodeComponentNotFound, cmd.ComponentID)
		}

		for _, p := range cmd.Parameters {
			spec, ok := findParameterSpec(cat.Actuator, p.Name)
			if !ok {
				return nil, errs.NewValidation(errs.CodeCommandInvalidValue,
					"component %s declares no parameter %q", cmd.ComponentID, p.Name)
			}
			if res := Match(spec.Values, p.Value); !res.Valid {
				return nil, errs.NewValidation(errs.CodeCommandInvalidValue,
					"value %q for parameter %q of component %s is outside spec %q",
					p.Value, p.Name, cmd.ComponentID, spec.Values)
			}
		}

		resolved = append(resolved, resolvedCommand{
			device:    dev,
			component: comp,
			actuator:  cat.Actuator,
			params:    cmd.Parameters,
		})
	}
	return resolved, nil
}

// buildMessage assembles the transport envelope for one resolved command.
// A device with no Connection Binding falls back to MQTT on the direct
// path so a user-issued command is never silently dropped.
func (d *Dispatcher) buildMessage(ctx context.Context, accountID string, rc resolvedCommand) models.ActuationMessage {
	transportType := models.TransportMQTT
	b, err := d.bindings.Latest(ctx, rc.device.ID)
	switch {
	case err != nil:
		d.logger.Warn("binding lookup failed, defaulting to mqtt",
			zap.String("device_id", rc.device.ID), zap.Error(err))
	case b != nil:
		transportType = b.Transport
	default:
		d.logger.Debug("device has no connection binding, defaulting to mqtt",
			zap.String("device_id", rc.device.ID))
	}

	return models.ActuationMessage{
		Type:      models.MessageTypeCommand,
		Transport: transportType,
		Content: models.ActuationContent{
			DomainID:    accountID,
			DeviceID:    rc.device.ID,
			GatewayID:   rc.device.GatewayID,
			ComponentID: rc.component.ID,
			Command:     rc.actuator.CommandString,
			Params:      rc.params,
		},
	}
}

// Send publishes one actuation message on its transport. Fire-and-forget:
// an error means the message never left the process.
func (d *Dispatcher) Send(ctx context.Context, msg models.ActuationMessage) error {
	return d.transports.Publish(ctx, msg)
}

// Persist appends the audit record for one dispatched message.
func (d *Dispatcher) Persist(ctx context.Context, accountID string, msg models.ActuationMessage) error {
	a := &models.Actuation{
		ID:          uuid.NewString(),
		Created:     time.Now().UTC(),
		Transport:   msg.Transport,
		DeviceID:    msg.Content.DeviceID,
		GatewayID:   msg.Content.GatewayID,
		ComponentID: msg.Content.ComponentID,
		Command:     msg.Content.Command,
		Parameters:  msg.Content.Params,
		AccountID:   accountID,
	}
	if err := d.actuations.InsertActuation(ctx, a); err != nil {
		return errs.NewSaving(errs.CodeActuationSaving, err)
	}
	return nil
}

// History lists the actuation audit trail for one device.
func (d *Dispatcher) History(ctx context.Context, accountID, deviceID string, limit int) ([]models.Actuation, error) {
	list, err := d.actuations.ListActuations(ctx, accountID, deviceID, limit)
	if err != nil {
		return nil, &errs.InternalError{Err: err}
	}
	return list, nil
}

func findComponent(dev *models.Device, componentID string) (models.DeviceComponent, bool) {
	for _, c := range dev.Components {
		if c.ID == componentID {
			return c, true
		}
	}
	return models.DeviceComponent{}, false
}

func findParameterSpec(a *models.Actuator, name string) (models.ActuatorParameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return models.ActuatorParameter{}, false
}
