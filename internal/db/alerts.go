package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"devicehub/internal/models"
)

const alertColumns = `alert_id, account_id, device_id, rule_id, rule_name, priority,
	triggered, natural_lang_alert, reset_type, conditions, status, comments, created`

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	var conditions, comments []byte
	err := row.Scan(&a.AlertID, &a.AccountID, &a.DeviceID, &a.RuleID, &a.RuleName,
		&a.Priority, &a.Triggered, &a.NaturalLangAlert, &a.ResetType,
		&conditions, &a.Status, &comments, &a.Created)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditions, &a.Conditions); err != nil {
		return nil, fmt.Errorf("decode alert conditions: %w", err)
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &a.Comments); err != nil {
			return nil, fmt.Errorf("decode alert comments: %w", err)
		}
	}
	return &a, nil
}

// InsertAlert persists a newly raised alert.
func (d *DB) InsertAlert(ctx context.Context, a *models.Alert) error {
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return err
	}
	comments, err := json.Marshal(a.Comments)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.AlertID, a.AccountID, a.DeviceID, a.RuleID, a.RuleName, a.Priority,
		a.Triggered, a.NaturalLangAlert, a.ResetType, conditions, a.Status,
		comments, a.Created)
	return err
}

// GetAlert fetches one alert scoped to an account.
func (d *DB) GetAlert(ctx context.Context, accountID, alertID string) (*models.Alert, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts
		WHERE account_id = $1 AND alert_id = $2`, accountID, alertID)
	return scanAlert(row)
}

// ListAlerts fetches all alerts of an account, most recent trigger first.
func (d *DB) ListAlerts(ctx context.Context, accountID string) ([]models.Alert, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts
		WHERE account_id = $1 ORDER BY triggered DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// UpdateAlertStatus transitions one alert's status.
func (d *DB) UpdateAlertStatus(ctx context.Context, accountID, alertID string, status models.AlertStatus) error {
	tag, err := d.pool.Exec(ctx, `UPDATE alerts SET status = $3
		WHERE account_id = $1 AND alert_id = $2`, accountID, alertID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// AppendAlertComments appends to an alert's comment list. Comments are
// append-only; existing entries are never rewritten.
func (d *DB) AppendAlertComments(ctx context.Context, accountID, alertID string, comments []models.AlertComment) error {
	payload, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx, `UPDATE alerts SET comments = comments || $3::jsonb
		WHERE account_id = $1 AND alert_id = $2`, accountID, alertID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// ListOpenAutomaticAlerts fetches open alerts whose rule resets
// automatically; consumed by the reset sweeper.
func (d *DB) ListOpenAutomaticAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts
		WHERE status = $1 AND reset_type = $2`, models.AlertStatusOpen, models.ResetAutomatic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}
