package rules

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

// clonedNameSuffix is appended to a cloned rule's name.
const clonedNameSuffix = " - cloned"

// Store persists rules scoped by account.
type Store interface {
	InsertRule(ctx context.Context, r *models.Rule) error
	UpsertRule(ctx context.Context, r *models.Rule) error
	UpdateRule(ctx context.Context, r *models.Rule) error
	GetRule(ctx context.Context, accountID, externalID string) (*models.Rule, error)
	ListRules(ctx context.Context, accountID string) ([]models.Rule, error)
	UpdateRuleStatus(ctx context.Context, accountID, externalID string, status models.RuleStatus) error
	DeleteDraft(ctx context.Context, accountID, externalID string) error
	DeleteRule(ctx context.Context, accountID, externalID string) error
}

// DeviceLookup resolves explicit population membership for the
// storage-backed validation pass.
type DeviceLookup interface {
	GetDevicesByIDs(ctx context.Context, accountID string, ids []string) ([]models.Device, error)
}

// Service is the rule lifecycle store. Every write re-runs the validator
// and the compiler; a validation failure aborts the write with the full
// accumulated violation list and nothing is partially applied.
type Service struct {
	store   Store
	devices DeviceLookup
	logger  *zap.Logger
}

// NewService wires the rule lifecycle service.
func NewService(store Store, devices DeviceLookup, logger *zap.Logger) *Service {
	return &Service{store: store, devices: devices, logger: logger}
}

// prepare validates r and returns its compiled form, ready to persist.
func (s *Service) prepare(ctx context.Context, accountID, owner string, r models.Rule, status models.RuleStatus) (*models.Rule, error) {
	r.AccountID = accountID
	if r.ExternalID == "" {
		r.ExternalID = uuid.NewString()
	}

	violations := Validate(&r)
	if len(r.Population.IDs) > 0 {
		devices, err := s.devices.GetDevicesByIDs(ctx, accountID, r.Population.IDs)
		if err != nil {
			// Membership unknown; the grammar checks above still apply.
			s.logger.Warn("population lookup failed, skipping device-component check",
				zap.String("account_id", accountID), zap.Error(err))
		} else {
			violations = append(violations, ValidateDevicesHaveComponents(&r, devices)...)
		}
	}
	if len(violations) > 0 {
		return nil, &errs.ValidationError{Violations: violations}
	}

	compiled := Compile(r, owner, status)
	compiled.LastUpdated = time.Now().UTC()
	return &compiled, nil
}

// Add validates, compiles and persists a new rule. status defaults to
// active when the caller passes none.
func (s *Service) Add(ctx context.Context, accountID, owner string, r models.Rule, status models.RuleStatus) (*models.Rule, error) {
	if status == "" {
		status = models.RuleStatusActive
	}
	if !status.Valid() {
		return nil, errs.NewValidation(errs.CodeInvalidStatus, "unknown rule status %q", status)
	}
	compiled, err := s.prepare(ctx, accountID, owner, r, status)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertRule(ctx, compiled); err != nil {
		return nil, errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return compiled, nil
}

// AddAsDraft validates, compiles and upserts a rule as a draft. Repeated
// saves of the same external id replace the draft in place. A rule that
// has left the draft status keeps its row; saving over it is rejected the
// same way Update rejects it.
func (s *Service) AddAsDraft(ctx context.Context, accountID, owner string, r models.Rule) (*models.Rule, error) {
	compiled, err := s.prepare(ctx, accountID, owner, r, models.RuleStatusDraft)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertRule(ctx, compiled); err != nil {
		if errors.Is(err, db.ErrNotDraft) {
			return nil, errs.NewSaving(errs.CodeSavingNonDraft, nil)
		}
		return nil, errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return compiled, nil
}

// Update replaces an existing rule. Only drafts are mutable; a non-draft
// rule can only have its status transitioned or be cloned.
func (s *Service) Update(ctx context.Context, accountID, owner, externalID string, r models.Rule, status models.RuleStatus) (*models.Rule, error) {
	existing, err := s.Get(ctx, accountID, externalID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.RuleStatusDraft {
		return nil, errs.NewSaving(errs.CodeSavingNonDraft, nil)
	}

	if status == "" {
		status = models.RuleStatusActive
	}
	if !status.Valid() {
		return nil, errs.NewValidation(errs.CodeInvalidStatus, "unknown rule status %q", status)
	}
	r.ExternalID = externalID
	compiled, err := s.prepare(ctx, accountID, owner, r, status)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateRule(ctx, compiled); err != nil {
		if db.IsNoRows(err) {
			return nil, errs.NewNotFound(errs.CodeRuleNotFound, externalID)
		}
		return nil, errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return compiled, nil
}

// UpdateStatus transitions a rule's lifecycle status. Archiving does not
// delete anything; history stays intact.
func (s *Service) UpdateStatus(ctx context.Context, accountID, externalID string, status models.RuleStatus) error {
	if !status.Valid() {
		return errs.NewValidation(errs.CodeInvalidStatus, "unknown rule status %q", status)
	}
	if err := s.store.UpdateRuleStatus(ctx, accountID, externalID, status); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeRuleNotFound, externalID)
		}
		return errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return nil
}

// Clone copies an existing rule into a brand-new one: fresh external id,
// name suffixed with " - cloned", population, conditions, actions,
// priority and reset type carried over, status chosen by the caller
// (default draft). The source rule is never touched.
func (s *Service) Clone(ctx context.Context, accountID, owner, externalID string, status models.RuleStatus) (*models.Rule, error) {
	src, err := s.Get(ctx, accountID, externalID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.RuleStatusDraft
	}

	clone := *src
	clone.ExternalID = uuid.NewString()
	clone.Name = src.Name + clonedNameSuffix
	return s.Add(ctx, accountID, owner, clone, status)
}

// Get fetches a rule by external id scoped to an account.
func (s *Service) Get(ctx context.Context, accountID, externalID string) (*models.Rule, error) {
	r, err := s.store.GetRule(ctx, accountID, externalID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, errs.NewNotFound(errs.CodeRuleNotFound, externalID)
		}
		return nil, &errs.InternalError{Err: err}
	}
	return r, nil
}

// List fetches all rules of an account.
func (s *Service) List(ctx context.Context, accountID string) ([]models.Rule, error) {
	list, err := s.store.ListRules(ctx, accountID)
	if err != nil {
		return nil, &errs.InternalError{Err: err}
	}
	return list, nil
}

// DeleteDraft removes a rule only while it is still a draft.
func (s *Service) DeleteDraft(ctx context.Context, accountID, externalID string) error {
	if err := s.store.DeleteDraft(ctx, accountID, externalID); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeRuleNotFound, externalID)
		}
		return errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return nil
}

// Delete removes a rule regardless of status.
func (s *Service) Delete(ctx context.Context, accountID, externalID string) error {
	if err := s.store.DeleteRule(ctx, accountID, externalID); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeRuleNotFound, externalID)
		}
		return errs.NewSaving(errs.CodeRuleSaving, err)
	}
	return nil
}
