package actuation

import (
	"context"

	"devicehub/internal/models"
)

// ComplexCommandStore persists named command lists per account.
type ComplexCommandStore interface {
	GetComplexCommand(ctx context.Context, accountID, name string) (*models.ComplexCommand, error)
	InsertComplexCommand(ctx context.Context, cc *models.ComplexCommand) error
	UpdateComplexCommand(ctx context.Context, cc *models.ComplexCommand) error
	DeleteComplexCommand(ctx context.Context, accountID, name string) error
	ListComplexCommands(ctx context.Context, accountID string) ([]models.ComplexCommand, error)
}

// DeviceStore resolves devices and their catalog component definitions.
// Both are owned by external collaborators; only reads happen here.
type DeviceStore interface {
	GetDeviceByComponent(ctx context.Context, accountID, componentID string) (*models.Device, error)
	FindCatalogComponent(ctx context.Context, accountID, catalogID string) (*models.CatalogComponent, error)
}

// ActuationStore persists and lists the append-only actuation audit trail.
type ActuationStore interface {
	InsertActuation(ctx context.Context, a *models.Actuation) error
	ListActuations(ctx context.Context, accountID, deviceID string, limit int) ([]models.Actuation, error)
}

// BindingReader reads the latest Connection Binding per device.
type BindingReader interface {
	Latest(ctx context.Context, deviceID string) (*models.ConnectionBinding, error)
}
