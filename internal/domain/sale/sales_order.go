// Package sale holds sales orders and the invoice lines they own.
package sale

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// SalesOrder is the parent of invoice lines. Deleting an order deletes
// every invoice line that references it.
type SalesOrder struct {
	shared.TenantAggregateRoot
	Name        string // order reference, e.g. SO-2024-0001
	PartnerName string
	OrderDate   time.Time
}

// NewSalesOrder creates a sales order
func NewSalesOrder(tenantID uuid.UUID, name, partnerName string, orderDate time.Time) (*SalesOrder, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("ORDER_NAME_REQUIRED", "Order reference cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_ORDER_NAME", "Order reference cannot exceed 100 characters")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		PartnerName:         strings.TrimSpace(partnerName),
		OrderDate:           orderDate,
	}
	order.AddDomainEvent(NewSalesOrderCreatedEvent(order))
	return order, nil
}

// MarkDeleted records the deletion together with the number of lines it took with it
func (o *SalesOrder) MarkDeleted(linesDeleted int64) {
	o.AddDomainEvent(NewSalesOrderDeletedEvent(o, linesDeleted))
}
