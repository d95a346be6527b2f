package actuation

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devicehub/internal/db"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

// Commands manages the per-account library of named complex commands.
// Writes run the same device/actuator/parameter validation the direct
// command path uses, so a stored complex command is always dispatchable
// as authored.
type Commands struct {
	store      ComplexCommandStore
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewCommands wires the complex-command service.
func NewCommands(store ComplexCommandStore, dispatcher *Dispatcher, logger *zap.Logger) *Commands {
	return &Commands{store: store, dispatcher: dispatcher, logger: logger}
}

// Add validates and stores a new named command list.
func (s *Commands) Add(ctx context.Context, accountID, name string, cmds []models.ComponentCommand) (*models.ComplexCommand, error) {
	if _, err := s.dispatcher.validate(ctx, accountID, cmds); err != nil {
		return nil, err
	}
	cc := &models.ComplexCommand{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		Commands:  cmds,
	}
	if err := s.store.InsertComplexCommand(ctx, cc); err != nil {
		return nil, errs.NewSaving(errs.CodeComplexSaving, err)
	}
	return cc, nil
}

// Update validates and replaces the command list of an existing name.
func (s *Commands) Update(ctx context.Context, accountID, name string, cmds []models.ComponentCommand) error {
	if _, err := s.dispatcher.validate(ctx, accountID, cmds); err != nil {
		return err
	}
	err := s.store.UpdateComplexCommand(ctx, &models.ComplexCommand{
		AccountID: accountID,
		Name:      name,
		Commands:  cmds,
	})
	if err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeComplexNotFound, name)
		}
		return errs.NewSaving(errs.CodeComplexSaving, err)
	}
	return nil
}

// Delete removes a named command list.
func (s *Commands) Delete(ctx context.Context, accountID, name string) error {
	if err := s.store.DeleteComplexCommand(ctx, accountID, name); err != nil {
		if db.IsNoRows(err) {
			return errs.NewNotFound(errs.CodeComplexNotFound, name)
		}
		return errs.NewSaving(errs.CodeComplexSaving, err)
	}
	return nil
}

// List fetches every complex command of an account.
func (s *Commands) List(ctx context.Context, accountID string) ([]models.ComplexCommand, error) {
	list, err := s.store.ListComplexCommands(ctx, accountID)
	if err != nil {
		return nil, &errs.InternalError{Err: err}
	}
	return list, nil
}
