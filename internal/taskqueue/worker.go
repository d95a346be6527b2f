package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"devicehub/internal/actuation"
	"devicehub/internal/errs"
	"devicehub/internal/models"
)

// RuleLookup resolves the rule a resolution task references.
type RuleLookup interface {
	Get(ctx context.Context, accountID, externalID string) (*models.Rule, error)
}

// Worker consumes resolution tasks off Redis.
type Worker struct {
	srv      *asynq.Server
	mux      *asynq.ServeMux
	rules    RuleLookup
	resolver *actuation.Resolver
	logger   *zap.Logger
}

// NewWorker builds the asynq consumer. concurrency bounds the fan-out of
// simultaneously processed tasks.
func NewWorker(redisAddr string, concurrency int, rules RuleLookup, resolver *actuation.Resolver, logger *zap.Logger) *Worker {
	w := &Worker{
		srv: asynq.NewServer(
			asynq.RedisClientOpt{Addr: redisAddr},
			asynq.Config{Concurrency: concurrency},
		),
		mux:      asynq.NewServeMux(),
		rules:    rules,
		resolver: resolver,
		logger:   logger,
	}
	w.mux.HandleFunc(TypeActuationResolve, w.handleResolve)
	return w
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown drains in-flight tasks and stops the worker pool.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func (w *Worker) handleResolve(ctx context.Context, t *asynq.Task) error {
	var payload ResolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeActuationResolve, err, asynq.SkipRetry)
	}

	rule, err := w.rules.Get(ctx, payload.AccountID, payload.RuleID)
	if err != nil {
		if errs.IsNotFound(err) {
			// The rule disappeared between trigger and resolution;
			// retrying will not bring it back.
			w.logger.Warn("rule gone before actuation resolution",
				zap.String("rule_id", payload.RuleID),
				zap.String("alert_id", payload.AlertID))
			return nil
		}
		return err
	}

	n := w.resolver.ResolveAndDispatch(ctx, rule)
	w.logger.Info("resolved actuation actions",
		zap.String("alert_id", payload.AlertID),
		zap.String("rule_id", payload.RuleID),
		zap.Int("messages", n))
	return nil
}
