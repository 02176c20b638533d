package sale

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/yunmao/backend/internal/domain/attachment"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
)

// MockSalesOrderRepository is a mock implementation of sale.SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.SalesOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesOrderRepository) ExistsForTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *sale.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockInvoiceLineRepository is a mock implementation of sale.InvoiceLineRepository
type MockInvoiceLineRepository struct {
	mock.Mock
}

func (m *MockInvoiceLineRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.InvoiceLine, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sale.InvoiceLine), args.Error(1)
}

func (m *MockInvoiceLineRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]sale.InvoiceLine, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.InvoiceLine), args.Error(1)
}

func (m *MockInvoiceLineRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.InvoiceLine, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.InvoiceLine), args.Error(1)
}

func (m *MockInvoiceLineRepository) FindByAttachment(ctx context.Context, tenantID, attachmentID uuid.UUID) ([]sale.InvoiceLine, error) {
	args := m.Called(ctx, tenantID, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sale.InvoiceLine), args.Error(1)
}

func (m *MockInvoiceLineRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceLineRepository) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceLineRepository) Save(ctx context.Context, line *sale.InvoiceLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockInvoiceLineRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockAttachmentRepository is a mock implementation of attachment.Repository
type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*attachment.Attachment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]attachment.Attachment, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) ExistsByStorageKey(ctx context.Context, tenantID uuid.UUID, storageKey string) (bool, error) {
	args := m.Called(ctx, tenantID, storageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttachmentRepository) Save(ctx context.Context, a *attachment.Attachment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
