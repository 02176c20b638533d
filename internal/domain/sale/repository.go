package sale

import (
	"context"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// SalesOrderRepository persists sales orders
type SalesOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SalesOrder, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsForTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	Save(ctx context.Context, order *SalesOrder) error

	// DeleteForTenant deletes the order together with all of its invoice lines
	// and their attachment links, in one transaction. Returns the number of
	// invoice lines removed.
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) (int64, error)
}

// InvoiceLineRepository persists invoice lines and their attachment links
type InvoiceLineRepository interface {
	// FindByIDForTenant loads a line with its attachment IDs
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceLine, error)

	// FindByOrder lists the lines of one order in creation order
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]InvoiceLine, error)

	// FindAllForTenant lists lines ordered by order then creation
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InvoiceLine, error)

	// FindByAttachment lists the lines linking the given attachment
	FindByAttachment(ctx context.Context, tenantID, attachmentID uuid.UUID) ([]InvoiceLine, error)

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)

	// Save writes the line and synchronizes its attachment links.
	// The stored total is recomputed in the same write.
	Save(ctx context.Context, line *InvoiceLine) error

	// DeleteForTenant removes the line and its attachment links only
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
