// Package scheduler hosts the periodic jobs of the alerting core.
// Currently that is the automatic-reset sweeper: alerts raised by rules
// with resetType=automatic are closed on a cron cadence instead of
// waiting for a manual reset.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"devicehub/internal/models"
)

// AlertSweepStore is the slice of the alert store the sweeper needs.
type AlertSweepStore interface {
	ListOpenAutomaticAlerts(ctx context.Context) ([]models.Alert, error)
	UpdateAlertStatus(ctx context.Context, accountID, alertID string, status models.AlertStatus) error
}

// Sweeper closes auto-reset alerts on a cron schedule. Each alert is
// closed independently; one failed close is logged and skipped.
type Sweeper struct {
	cron   *cron.Cron
	alerts AlertSweepStore
	spec   string
	logger *zap.Logger
}

// NewSweeper builds the sweeper. spec is a cron expression, e.g.
// "@every 1m".
func NewSweeper(alerts AlertSweepStore, spec string, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(),
		alerts: alerts,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("alert reset sweeper started", zap.String("cron", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("alert reset sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx := context.Background()
	alerts, err := s.alerts.ListOpenAutomaticAlerts(ctx)
	if err != nil {
		s.logger.Error("sweep: listing open auto-reset alerts failed", zap.Error(err))
		return
	}
	if len(alerts) == 0 {
		return
	}

	closed := 0
	for _, a := range alerts {
		if err := s.alerts.UpdateAlertStatus(ctx, a.AccountID, a.AlertID, models.AlertStatusClosed); err != nil {
			s.logger.Warn("sweep: closing alert failed",
				zap.String("alert_id", a.AlertID), zap.Error(err))
			continue
		}
		closed++
	}
	s.logger.Info("sweep: auto-reset alerts closed",
		zap.Int("closed", closed), zap.Int("total", len(alerts)))
}
