// Package bus is the in-process notification channel between the alert
// and actuation pipelines and their downstream listeners (outbound mail,
// push, websocket feeds). Listeners subscribe explicitly, so the set of
// consumers is statically known and testable.
package bus

import (
	"sync"

	"devicehub/internal/models"
)

// AlertRaised is published after an alert has been persisted.
type AlertRaised struct {
	Alert models.Alert
	Rule  models.Rule
}

// CommandIssued is published after a direct command batch passed
// validation and was dispatched.
type CommandIssued struct {
	AccountID string
	Messages  []models.ActuationMessage
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// that cannot keep up misses events rather than stalling the pipeline.
type Bus struct {
	mu          sync.RWMutex
	alertSubs   []chan AlertRaised
	commandSubs []chan CommandIssued
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// SubscribeAlerts registers a buffered listener for AlertRaised events.
func (b *Bus) SubscribeAlerts(buffer int) <-chan AlertRaised {
	ch := make(chan AlertRaised, buffer)
	b.mu.Lock()
	b.alertSubs = append(b.alertSubs, ch)
	b.mu.Unlock()
	return ch
}

// SubscribeCommands registers a buffered listener for CommandIssued events.
func (b *Bus) SubscribeCommands(buffer int) <-chan CommandIssued {
	ch := make(chan CommandIssued, buffer)
	b.mu.Lock()
	b.commandSubs = append(b.commandSubs, ch)
	b.mu.Unlock()
	return ch
}

// PublishAlertRaised delivers ev to all alert subscribers without blocking.
func (b *Bus) PublishAlertRaised(ev AlertRaised) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.alertSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishCommandIssued delivers ev to all command subscribers without blocking.
func (b *Bus) PublishCommandIssued(ev CommandIssued) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.commandSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}
