package sale

import (
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeSalesOrder  = "SalesOrder"
	AggregateTypeInvoiceLine = "InvoiceLine"
)

// Event type constants
const (
	EventTypeSalesOrderCreated             = "SalesOrderCreated"
	EventTypeSalesOrderDeleted             = "SalesOrderDeleted"
	EventTypeInvoiceLineCreated            = "InvoiceLineCreated"
	EventTypeInvoiceLineUpdated            = "InvoiceLineUpdated"
	EventTypeInvoiceLineTotalRecomputed    = "InvoiceLineTotalRecomputed"
	EventTypeInvoiceLineAttachmentsChanged = "InvoiceLineAttachmentsChanged"
	EventTypeInvoiceLineDeleted            = "InvoiceLineDeleted"
)

// SalesOrderCreatedEvent is published when an order is created
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Name    string    `json:"name"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(o *SalesOrder) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		Name:            o.Name,
	}
}

// SalesOrderDeletedEvent is published after an order and its lines are removed
type SalesOrderDeletedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID `json:"order_id"`
	Name         string    `json:"name"`
	LinesDeleted int64     `json:"lines_deleted"`
}

// NewSalesOrderDeletedEvent creates a new SalesOrderDeletedEvent
func NewSalesOrderDeletedEvent(o *SalesOrder, linesDeleted int64) *SalesOrderDeletedEvent {
	return &SalesOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderDeleted, AggregateTypeSalesOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		Name:            o.Name,
		LinesDeleted:    linesDeleted,
	}
}

// InvoiceLineCreatedEvent is published when a line is created
type InvoiceLineCreatedEvent struct {
	shared.BaseDomainEvent
	LineID       uuid.UUID `json:"line_id"`
	OrderID      uuid.UUID `json:"order_id"`
	InvoiceValue float64   `json:"invoice_value"`
	InvoiceTax   float64   `json:"invoice_tax"`
	InvoiceTotal float64   `json:"invoice_total"`
}

// NewInvoiceLineCreatedEvent creates a new InvoiceLineCreatedEvent
func NewInvoiceLineCreatedEvent(l *InvoiceLine) *InvoiceLineCreatedEvent {
	return &InvoiceLineCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineCreated, AggregateTypeInvoiceLine, l.ID, l.TenantID),
		LineID:          l.ID,
		OrderID:         l.OrderID,
		InvoiceValue:    l.InvoiceValue,
		InvoiceTax:      l.InvoiceTax,
		InvoiceTotal:    l.InvoiceTotal,
	}
}

// InvoiceLineUpdatedEvent is published when a line's fields are replaced
type InvoiceLineUpdatedEvent struct {
	shared.BaseDomainEvent
	LineID  uuid.UUID `json:"line_id"`
	OrderID uuid.UUID `json:"order_id"`
}

// NewInvoiceLineUpdatedEvent creates a new InvoiceLineUpdatedEvent
func NewInvoiceLineUpdatedEvent(l *InvoiceLine) *InvoiceLineUpdatedEvent {
	return &InvoiceLineUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineUpdated, AggregateTypeInvoiceLine, l.ID, l.TenantID),
		LineID:          l.ID,
		OrderID:         l.OrderID,
	}
}

// InvoiceLineTotalRecomputedEvent is published when the stored total changes
type InvoiceLineTotalRecomputedEvent struct {
	shared.BaseDomainEvent
	LineID   uuid.UUID `json:"line_id"`
	OrderID  uuid.UUID `json:"order_id"`
	OldTotal float64   `json:"old_total"`
	NewTotal float64   `json:"new_total"`
}

// NewInvoiceLineTotalRecomputedEvent creates a new InvoiceLineTotalRecomputedEvent
func NewInvoiceLineTotalRecomputedEvent(l *InvoiceLine, oldTotal float64) *InvoiceLineTotalRecomputedEvent {
	return &InvoiceLineTotalRecomputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineTotalRecomputed, AggregateTypeInvoiceLine, l.ID, l.TenantID),
		LineID:          l.ID,
		OrderID:         l.OrderID,
		OldTotal:        oldTotal,
		NewTotal:        l.InvoiceTotal,
	}
}

// InvoiceLineAttachmentsChangedEvent is published when attachment links change
type InvoiceLineAttachmentsChangedEvent struct {
	shared.BaseDomainEvent
	LineID        uuid.UUID   `json:"line_id"`
	AttachmentIDs []uuid.UUID `json:"attachment_ids"`
}

// NewInvoiceLineAttachmentsChangedEvent creates a new InvoiceLineAttachmentsChangedEvent
func NewInvoiceLineAttachmentsChangedEvent(l *InvoiceLine) *InvoiceLineAttachmentsChangedEvent {
	ids := make([]uuid.UUID, len(l.AttachmentIDs))
	copy(ids, l.AttachmentIDs)
	return &InvoiceLineAttachmentsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineAttachmentsChanged, AggregateTypeInvoiceLine, l.ID, l.TenantID),
		LineID:          l.ID,
		AttachmentIDs:   ids,
	}
}

// InvoiceLineDeletedEvent is published after a line is removed
type InvoiceLineDeletedEvent struct {
	shared.BaseDomainEvent
	LineID  uuid.UUID `json:"line_id"`
	OrderID uuid.UUID `json:"order_id"`
}

// NewInvoiceLineDeletedEvent creates a new InvoiceLineDeletedEvent
func NewInvoiceLineDeletedEvent(l *InvoiceLine) *InvoiceLineDeletedEvent {
	return &InvoiceLineDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceLineDeleted, AggregateTypeInvoiceLine, l.ID, l.TenantID),
		LineID:          l.ID,
		OrderID:         l.OrderID,
	}
}
