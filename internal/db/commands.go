package db

import (
	"context"
	"encoding/json"
	"fmt"

	"devicehub/internal/models"
)

// InsertComplexCommand persists a new named command list. The unique
// index on (account_id, name) rejects duplicates.
func (d *DB) InsertComplexCommand(ctx context.Context, cc *models.ComplexCommand) error {
	commands, err := json.Marshal(cc.Commands)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `INSERT INTO complex_commands (id, account_id, name, commands)
		VALUES ($1, $2, $3, $4)`, cc.ID, cc.AccountID, cc.Name, commands)
	return err
}

// UpdateComplexCommand replaces the command list of an existing name.
func (d *DB) UpdateComplexCommand(ctx context.Context, cc *models.ComplexCommand) error {
	commands, err := json.Marshal(cc.Commands)
	if err != nil {
		return err
	}
	tag, err := d.pool.Exec(ctx, `UPDATE complex_commands SET commands = $3
		WHERE account_id = $1 AND name = $2`, cc.AccountID, cc.Name, commands)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteComplexCommand removes a named command list.
func (d *DB) DeleteComplexCommand(ctx context.Context, accountID, name string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM complex_commands
		WHERE account_id = $1 AND name = $2`, accountID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// GetComplexCommand fetches one named command list for an account.
func (d *DB) GetComplexCommand(ctx context.Context, accountID, name string) (*models.ComplexCommand, error) {
	var cc models.ComplexCommand
	var commands []byte
	err := d.pool.QueryRow(ctx, `SELECT id, account_id, name, commands FROM complex_commands
		WHERE account_id = $1 AND name = $2`, accountID, name).
		Scan(&cc.ID, &cc.AccountID, &cc.Name, &commands)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(commands, &cc.Commands); err != nil {
		return nil, fmt.Errorf("decode complex command %q: %w", name, err)
	}
	return &cc, nil
}

// ListComplexCommands fetches all named command lists of an account.
func (d *DB) ListComplexCommands(ctx context.Context, accountID string) ([]models.ComplexCommand, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, account_id, name, commands FROM complex_commands
		WHERE account_id = $1 ORDER BY name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ComplexCommand
	for rows.Next() {
		var cc models.ComplexCommand
		var commands []byte
		if err := rows.Scan(&cc.ID, &cc.AccountID, &cc.Name, &commands); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(commands, &cc.Commands); err != nil {
			return nil, fmt.Errorf("decode complex command %q: %w", cc.Name, err)
		}
		list = append(list, cc)
	}
	return list, rows.Err()
}

// InsertActuation appends one dispatched-command audit record.
func (d *DB) InsertActuation(ctx context.Context, a *models.Actuation) error {
	parameters, err := json.Marshal(a.Parameters)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `INSERT INTO actuations
		(id, created, transport, device_id, gateway_id, component_id, command, parameters, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Created, a.Transport, a.DeviceID, a.GatewayID, a.ComponentID,
		a.Command, parameters, a.AccountID)
	return err
}

// ListActuations fetches the actuation audit trail for one device, newest
// first, capped at limit.
func (d *DB) ListActuations(ctx context.Context, accountID, deviceID string, limit int) ([]models.Actuation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.pool.Query(ctx, `SELECT id, created, transport, device_id, gateway_id,
			component_id, command, parameters, account_id
		FROM actuations WHERE account_id = $1 AND device_id = $2
		ORDER BY created DESC LIMIT $3`, accountID, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Actuation
	for rows.Next() {
		var a models.Actuation
		var parameters []byte
		if err := rows.Scan(&a.ID, &a.Created, &a.Transport, &a.DeviceID, &a.GatewayID,
			&a.ComponentID, &a.Command, &parameters, &a.AccountID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(parameters, &a.Parameters); err != nil {
			return nil, fmt.Errorf("decode actuation parameters: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
