package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"devicehub/internal/models"
)

// ErrNoRows is returned when a scoped lookup matches nothing; callers map
// it to their own not-found error kind.
var ErrNoRows = pgx.ErrNoRows

// ErrNotDraft is returned when a draft-only write hits a rule that has
// left the draft status.
var ErrNotDraft = errors.New("rule is not a draft")

const ruleColumns = `external_id, account_id, name, priority, status, reset_type, owner,
	population, conditions, logic_operator, actions, natural_language, last_updated`

func scanRule(row pgx.Row) (*models.Rule, error) {
	var r models.Rule
	var population, conditions, actions []byte
	err := row.Scan(&r.ExternalID, &r.AccountID, &r.Name, &r.Priority, &r.Status,
		&r.ResetType, &r.Owner, &population, &conditions, &r.LogicOperator,
		&actions, &r.NaturalLanguage, &r.LastUpdated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(population, &r.Population); err != nil {
		return nil, fmt.Errorf("decode rule population: %w", err)
	}
	if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
		return nil, fmt.Errorf("decode rule conditions: %w", err)
	}
	if err := json.Unmarshal(actions, &r.Actions); err != nil {
		return nil, fmt.Errorf("decode rule actions: %w", err)
	}
	return &r, nil
}

func ruleArgs(r *models.Rule) ([]byte, []byte, []byte, error) {
	population, err := json.Marshal(r.Population)
	if err != nil {
		return nil, nil, nil, err
	}
	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return nil, nil, nil, err
	}
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return nil, nil, nil, err
	}
	return population, conditions, actions, nil
}

// InsertRule persists a new rule.
func (d *DB) InsertRule(ctx context.Context, r *models.Rule) error {
	population, conditions, actions, err := ruleArgs(r)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `INSERT INTO rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ExternalID, r.AccountID, r.Name, r.Priority, r.Status, r.ResetType, r.Owner,
		population, conditions, r.LogicOperator, actions, r.NaturalLanguage, r.LastUpdated)
	return err
}

// UpsertRule inserts or fully replaces a rule. Used by the draft path,
// where repeated saves of the same external id are expected. The replace
// arm only fires while the stored row is still a draft; colliding with a
// rule that left the draft status returns ErrNotDraft.
func (d *DB) UpsertRule(ctx context.Context, r *models.Rule) error {
	population, conditions, actions, err := ruleArgs(r)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx, `INSERT INTO rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, external_id) DO UPDATE SET
			name = EXCLUDED.name, priority = EXCLUDED.priority, status = EXCLUDED.status,
			reset_type = EXCLUDED.reset_type, owner = EXCLUDED.owner,
			population = EXCLUDED.population, conditions = EXCLUDED.conditions,
			logic_operator = EXCLUDED.logic_operator, actions = EXCLUDED.actions,
			natural_language = EXCLUDED.natural_language, last_updated = EXCLUDED.last_updated
		WHERE rules.status = 'draft'`,
		r.ExternalID, r.AccountID, r.Name, r.Priority, r.Status, r.ResetType, r.Owner,
		population, conditions, r.LogicOperator, actions, r.NaturalLanguage, r.LastUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDraft
	}
	return nil
}

// UpdateRule replaces all mutable fields of an existing rule.
func (d *DB) UpdateRule(ctx context.Context, r *models.Rule) error {
	population, conditions, actions, err := ruleArgs(r)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx, `UPDATE rules SET
			name = $3, priority = $4, status = $5, reset_type = $6, owner = $7,
			population = $8, conditions = $9, logic_operator = $10, actions = $11,
			natural_language = $12, last_updated = $13
		WHERE account_id = $1 AND external_id = $2`,
		r.AccountID, r.ExternalID, r.Name, r.Priority, r.Status, r.ResetType, r.Owner,
		population, conditions, r.LogicOperator, actions, r.NaturalLanguage, r.LastUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// GetRule fetches a rule by external id scoped to an account.
func (d *DB) GetRule(ctx context.Context, accountID, externalID string) (*models.Rule, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM rules
		WHERE account_id = $1 AND external_id = $2`, accountID, externalID)
	return scanRule(row)
}

// ListRules fetches all rules of an account, newest first.
func (d *DB) ListRules(ctx context.Context, accountID string) ([]models.Rule, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+ruleColumns+` FROM rules
		WHERE account_id = $1 ORDER BY last_updated DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// UpdateRuleStatus transitions a rule's status and records the transition
// in the status history, as one all-or-nothing transaction.
func (d *DB) UpdateRuleStatus(ctx context.Context, accountID, externalID string, status models.RuleStatus) error {
	return d.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE rules SET status = $3, last_updated = NOW()
			WHERE account_id = $1 AND external_id = $2`, accountID, externalID, status)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNoRows
		}
		_, err = tx.Exec(ctx, `INSERT INTO rule_status_history (account_id, external_id, status, changed_at)
			VALUES ($1, $2, $3, NOW())`, accountID, externalID, status)
		return err
	})
}

// DeleteDraft removes a rule only while it is still a draft.
func (d *DB) DeleteDraft(ctx context.Context, accountID, externalID string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM rules
		WHERE account_id = $1 AND external_id = $2 AND status = $3`,
		accountID, externalID, models.RuleStatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteRule removes a rule regardless of status.
func (d *DB) DeleteRule(ctx context.Context, accountID, externalID string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM rules
		WHERE account_id = $1 AND external_id = $2`, accountID, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// IsNoRows reports whether err is the scoped-lookup miss sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
