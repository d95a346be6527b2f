// Package alerts materializes alerts from external trigger events and
// manages their lifecycle. The trigger batch is a best-effort fan-out:
// every item reports its own outcome, and downstream actuation never
// affects whether a trigger counts as accepted.
package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"devicehub/internal/bus"
	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

// AlertStore persists alerts scoped by account.
type AlertStore interface {
	InsertAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, accountID, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, accountID string) ([]models.Alert, error)
	UpdateAlertStatus(ctx context.Context, accountID, alertID string, status models.AlertStatus) error
	AppendAlertComments(ctx context.Context, accountID, alertID string, comments []models.AlertComment) error
}

// RuleLookup resolves the triggered rule by external id and account.
type RuleLookup interface {
	Get(ctx context.Context, accountID, externalID string) (*models.Rule, error)
}

// Enqueuer hands actuation resolution off to the background worker.
type Enqueuer interface {
	EnqueueActuationResolve(accountID, ruleID, alertID string) error
}

// TriggerCondition is the snapshot of one matched condition as reported
// by the external evaluation service.
type TriggerCondition struct {
	Components []string `json:"components,omitempty"`
	Condition  string   `json:"condition"`
}

// TriggerItem is one entry of a trigger batch.
type TriggerItem struct {
	AccountID  string             `json:"accountId"`
	RuleID     string             `json:"ruleId"`
	DeviceID   string             `json:"deviceId"`
	Conditions []TriggerCondition `json:"conditions"`
	Timestamp  int64              `json:"timestamp"` // unix milliseconds
}

// TriggerResult is the per-item outcome of a trigger batch.
type TriggerResult struct {
	RuleID   string `json:"ruleId"`
	DeviceID string `json:"deviceId"`
	AlertID  string `json:"alertId,omitempty"`
	Err      error  `json:"-"`
}

// Service is the alert trigger pipeline and alert lifecycle store.
type Service struct {
	alerts AlertStore
	rules  RuleLookup
	queue  Enqueuer
	bus    *bus.Bus
	logger *zap.Logger
}

// NewService wires the alert service.
func NewService(alerts AlertStore, rules RuleLookup, queue Enqueuer, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{alerts: alerts, rules: rules, queue: queue, bus: b, logger: logger}
}

// batchConcurrency bounds the fan-out of batch operations.
const batchConcurrency = 8

// Trigger materializes alerts for a batch of externally-evaluated trigger
// events with a bounded concurrent fan-out. Items are independent: one
// failing item is reported in its own result and never blocks or rolls
// back its siblings. Once an alert is persisted its item counts as
// triggered; actuation resolution runs in the background and its outcome
// is not part of the result.
func (s *Service) Trigger(ctx context.Context, items []TriggerItem) []TriggerResult {
	results := make([]TriggerResult, len(items))
	g := new(errgroup.Group)
	g.SetLimit(batchConcurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = s.triggerOne(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) triggerOne(ctx context.Context, item TriggerItem) TriggerResult {
	res := TriggerResult{RuleID: item.RuleID, DeviceID: item.DeviceID}

	rule, err := s.rules.Get(ctx, item.AccountID, item.RuleID)
	if err != nil {
		res.Err = err
		return res
	}

	alert := buildAlert(rule, item)
	if err := s.alerts.InsertAlert(ctx, alert); err != nil {
		res.Err = errs.NewSaving(errs.CodeAlertSaving, err)
		return res
	}
	res.AlertID = alert.AlertID

	// The alert is committed; everything past this point is best-effort.
	if err := s.queue.EnqueueActuationResolve(item.AccountID, rule.ExternalID, alert.AlertID); err != nil {
		s.logger.Error("failed to enqueue actuation resolution",
			zap.String("alert_id", alert.AlertID),
			zap.String("rule_id", rule.ExternalID), zap.Error(err))
	}
	s.bus.PublishAlertRaised(bus.AlertRaised{Alert: *alert, Rule: *rule})

	return res
}

func buildAlert(rule *models.Rule, item TriggerItem) *models.Alert {
	conditions := make([]models.AlertCondition, len(item.Conditions))
	for i, c := range item.Conditions {
		conditions[i] = models.AlertCondition{
			Sequence:   i + 1,
			Condition:  c.Condition,
			Components: c.Components,
		}
	}
	return &models.Alert{
		AccountID:        item.AccountID,
		AlertID:          uuid.NewString(),
		DeviceID:         item.DeviceID,
		RuleID:           rule.ExternalID,
		RuleName:         rule.Name,
		Priority:         rule.Priority,
		Triggered:        time.UnixMilli(item.Timestamp).UTC(),
		NaturalLangAlert: rule.NaturalLanguage,
		ResetType:        rule.ResetType,
		Conditions:       conditions,
		Status:           models.AlertStatusOpen,
		Created:          time.Now().UTC(),
	}
}

// Reset closes one alert.
func (s *Service) Reset(ctx context.Context, accountID, alertID string) error {
	return s.ChangeStatus(ctx, accountID, alertID, models.AlertStatusClosed)
}

// ResetResult is the per-item outcome of a bulk reset.
type ResetResult struct {
	AlertID string `json:"alertId"`
	Err     error  `json:"-"`
}

// BulkReset closes a set of alerts with a bounded concurrent fan-out.
// Each item is independently fallible.
func (s *Service) BulkReset(ctx context.Context, accountID string, alertIDs []string) []ResetResult {
	results := make([]ResetResult, len(alertIDs))
	g := new(errgroup.Group)
	g.SetLimit(batchConcurrency)
	for i, id := range alertIDs {
		g.Go(func() error {
			results[i] = ResetResult{AlertID: id, Err: s.Reset(ctx, accountID, id)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ChangeStatus transitions one alert's status.
func (s *Service) ChangeStatus(ctx context.Context, accountID, alertID string, status models.AlertStatus) error {
	if !status.Valid() {
		return errs.NewValidation(errs.CodeAlertInvalidStatus, "unknown alert status %q", status)
	}
	if err := s.alerts.UpdateAlertStatus(ctx, accountID, alertID, status); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeAlertNotFound, alertID)
		}
		return errs.NewSaving(errs.CodeAlertSaving, err)
	}
	return nil
}

// AddComments appends comments to an alert. Missing timestamps are
// stamped with the current time.
func (s *Service) AddComments(ctx context.Context, accountID, alertID string, comments []models.AlertComment) error {
	now := time.Now().UTC()
	for i := range comments {
		if comments[i].Timestamp.IsZero() {
			comments[i].Timestamp = now
		}
	}
	if err := s.alerts.AppendAlertComments(ctx, accountID, alertID, comments); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeAlertNotFound, alertID)
		}
		return errs.NewSaving(errs.CodeAlertSaving, err)
	}
	return nil
}

// Get fetches one alert.
func (s *Service) Get(ctx context.Context, accountID, alertID string) (*models.Alert, error) {
	a, err := s.alerts.GetAlert(ctx, accountID, alertID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, errs.NewNotFound(errs.CodeAlertNotFound, alertID)
		}
		return nil, &errs.InternalError{Err: err}
	}
	return a, nil
}

// List fetches all alerts of an account.
func (s *Service) List(ctx context.Context, accountID string) ([]models.Alert, error) {
	list, err := s.alerts.ListAlerts(ctx, accountID)
	if err != nil {
		return nil, &errs.InternalError{Err: err}
	}
	return list, nil
}
