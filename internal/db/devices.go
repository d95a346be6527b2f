package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"devicehub/internal/models"
)

// Device and component-catalog rows are owned by external collaborators
// (device registry, component catalog); this core only reads them.

const deviceColumns = `device_id, gateway_id, account_id, name, components`

func scanDevice(row pgx.Row) (*models.Device, error) {
	var dev models.Device
	var components []byte
	if err := row.Scan(&dev.ID, &dev.GatewayID, &dev.AccountID, &dev.Name, &components); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(components, &dev.Components); err != nil {
		return nil, fmt.Errorf("decode device components: %w", err)
	}
	return &dev, nil
}

// GetDeviceByComponent resolves the device owning a component instance.
func (d *DB) GetDeviceByComponent(ctx context.Context, accountID, componentID string) (*models.Device, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices
		WHERE account_id = $1 AND components @> $2::jsonb`,
		accountID, fmt.Sprintf(`[{"cid": %q}]`, componentID))
	return scanDevice(row)
}

// GetDevicesByIDs fetches the named devices of an account. Unknown ids
// are simply absent from the result.
func (d *DB) GetDevicesByIDs(ctx context.Context, accountID string, ids []string) ([]models.Device, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices
		WHERE account_id = $1 AND device_id = ANY($2)`, accountID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *dev)
	}
	return devices, rows.Err()
}

// FindCatalogComponent fetches one component-catalog entry, including its
// actuator parameter specs.
func (d *DB) FindCatalogComponent(ctx context.Context, accountID, catalogID string) (*models.CatalogComponent, error) {
	var c models.CatalogComponent
	var actuator []byte
	err := d.pool.QueryRow(ctx, `SELECT id, account_id, type, actuator FROM component_catalog
		WHERE account_id = $1 AND id = $2`, accountID, catalogID).
		Scan(&c.ID, &c.AccountID, &c.Type, &actuator)
	if err != nil {
		return nil, err
	}
	if len(actuator) > 0 {
		if err := json.Unmarshal(actuator, &c.Actuator); err != nil {
			return nil, fmt.Errorf("decode catalog actuator %q: %w", catalogID, err)
		}
	}
	return &c, nil
}
