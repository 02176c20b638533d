package purchase

import (
	"context"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// ContractRepository persists purchase contracts
type ContractRepository interface {
	// FindByID finds a contract by ID regardless of tenant
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByIDForTenant finds a contract by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)

	// FindAllForTenant lists contracts, newest first unless the filter says otherwise
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, error)

	// FindByName returns every contract carrying the given number.
	// Names are indexed but not unique.
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) ([]Contract, error)

	// CountForTenant counts contracts matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a contract
	Save(ctx context.Context, contract *Contract) error

	// DeleteForTenant permanently deletes a contract
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
