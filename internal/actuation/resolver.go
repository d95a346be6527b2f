package actuation

import (
	"context"

	"go.uber.org/zap"

	"devicehub/internal/models"
)

// sender is the slice of the dispatcher the resolver uses to emit
// resolved messages.
type sender interface {
	Send(ctx context.Context, msg models.ActuationMessage) error
	Persist(ctx context.Context, accountID string, msg models.ActuationMessage) error
}

// Resolver expands a rule's actuation actions into concrete per-device
// messages. Resolution is a best-effort fan-out over independent items: a
// command whose device or connection binding cannot be resolved is logged
// and skipped, never blocking its siblings.
type Resolver struct {
	commands ComplexCommandStore
	devices  DeviceStore
	bindings BindingReader
	out      sender
	logger   *zap.Logger
}

// NewResolver wires the resolver's collaborators. out is normally the
// Dispatcher, whose send/persist primitives the resolver shares.
func NewResolver(commands ComplexCommandStore, devices DeviceStore, bindings BindingReader,
	out sender, logger *zap.Logger) *Resolver {
	return &Resolver{
		commands: commands,
		devices:  devices,
		bindings: bindings,
		out:      out,
		logger:   logger,
	}
}

// Resolve expands every actuation action of rule, appending the resolved
// messages to the action and returning them all. rule is mutated in
// place; Messages is transient state, never persisted with the rule.
func (r *Resolver) Resolve(ctx context.Context, rule *models.Rule) []models.ActuationMessage {
	var all []models.ActuationMessage
	for i := range rule.Actions {
		action := &rule.Actions[i]
		if action.Type != models.ActionActuation {
			continue
		}
		for _, name := range action.Target {
			cc, err := r.commands.GetComplexCommand(ctx, rule.AccountID, name)
			if err != nil {
				r.logger.Warn("complex command unresolved, skipping",
					zap.String("account_id", rule.AccountID),
					zap.String("complex_command", name), zap.Error(err))
				continue
			}
			for _, cmd := range cc.Commands {
				msg, ok := r.resolveCommand(ctx, rule.AccountID, cmd)
				if !ok {
					continue
				}
				action.Messages = append(action.Messages, msg)
				all = append(all, msg)
			}
		}
	}
	return all
}

// resolveCommand binds one component command to its owning device, the
// device's current transport and the actuator command string.
func (r *Resolver) resolveCommand(ctx context.Context, accountID string, cmd models.ComponentCommand) (models.ActuationMessage, bool) {
	dev, err := r.devices.GetDeviceByComponent(ctx, accountID, cmd.ComponentID)
	if err != nil {
		r.logger.Warn("device lookup failed, skipping command",
			zap.String("component_id", cmd.ComponentID), zap.Error(err))
		return models.ActuationMessage{}, false
	}

	comp, ok := findComponent(dev, cmd.ComponentID)
	if !ok {
		r.logger.Warn("component not installed on resolved device, skipping command",
			zap.String("device_id", dev.ID), zap.String("component_id", cmd.ComponentID))
		return models.ActuationMessage{}, false
	}

	cat, err := r.devices.FindCatalogComponent(ctx, accountID, comp.CatalogID)
	if err != nil || cat.Actuator == nil {
		r.logger.Warn("no actuator definition for component, skipping command",
			zap.String("component_id", cmd.ComponentID), zap.Error(err))
		return models.ActuationMessage{}, false
	}

	binding, err := r.bindings.Latest(ctx, dev.ID)
	if err != nil {
		r.logger.Warn("binding lookup failed, skipping command",
			zap.String("device_id", dev.ID), zap.Error(err))
		return models.ActuationMessage{}, false
	}
	if binding == nil {
		r.logger.Warn("device has no connection binding, skipping command",
			zap.String("device_id", dev.ID), zap.String("component_id", cmd.ComponentID))
		return models.ActuationMessage{}, false
	}

	return models.ActuationMessage{
		Type:      models.MessageTypeCommand,
		Transport: binding.Transport,
		Content: models.ActuationContent{
			DomainID:    accountID,
			DeviceID:    dev.ID,
			GatewayID:   dev.GatewayID,
			ComponentID: comp.ID,
			Command:     cat.Actuator.CommandString,
			Params:      cmd.Parameters,
		},
	}, true
}

// ResolveAndDispatch resolves rule's actuation actions, publishes every
// resolved message and appends its audit record. All failures past
// resolution are logged only; the alert that triggered this work is
// already committed. Returns the number of resolved messages.
func (r *Resolver) ResolveAndDispatch(ctx context.Context, rule *models.Rule) int {
	msgs := r.Resolve(ctx, rule)
	for _, msg := range msgs {
		if err := r.out.Send(ctx, msg); err != nil {
			r.logger.Warn("actuation publish failed",
				zap.String("device_id", msg.Content.DeviceID), zap.Error(err))
			continue
		}
		if err := r.out.Persist(ctx, rule.AccountID, msg); err != nil {
			r.logger.Warn("actuation audit write failed",
				zap.String("device_id", msg.Content.DeviceID), zap.Error(err))
		}
	}
	return len(msgs)
}
