package sale

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
)

func newOrderService() (*OrderService, *MockSalesOrderRepository, *MockInvoiceLineRepository, *recordingPublisher) {
	orders := new(MockSalesOrderRepository)
	lines := new(MockInvoiceLineRepository)
	pub := &recordingPublisher{}
	return NewOrderService(orders, lines, pub, nil), orders, lines, pub
}

func existingOrder(t *testing.T, tenantID uuid.UUID) *sale.SalesOrder {
	t.Helper()
	order, err := sale.NewSalesOrder(tenantID, "SO-2024-0001", "ACME", time.Now())
	require.NoError(t, err)
	order.ClearDomainEvents()
	return order
}

func TestOrderService_Create(t *testing.T) {
	svc, orders, _, pub := newOrderService()
	tenantID := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	orders.On("Save", mock.Anything, mock.AnythingOfType("*sale.SalesOrder")).Return(nil)

	resp, err := svc.Create(context.Background(), tenantID, CreateSalesOrderRequest{
		Name:        "SO-1",
		PartnerName: "ACME",
		OrderDate:   &date,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "SO-1", resp.Name)
	assert.Equal(t, date, resp.OrderDate)
	assert.Equal(t, []string{sale.EventTypeSalesOrderCreated}, pub.types())
}

func TestOrderService_Create_RequiresName(t *testing.T) {
	svc, orders, _, _ := newOrderService()

	_, err := svc.Create(context.Background(), uuid.New(), CreateSalesOrderRequest{Name: "  "}, nil)

	require.Error(t, err)
	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderService_Delete_CascadesToLines(t *testing.T) {
	svc, orders, _, pub := newOrderService()
	tenantID := uuid.New()
	order := existingOrder(t, tenantID)

	orders.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
	orders.On("DeleteForTenant", mock.Anything, tenantID, order.ID).Return(int64(2), nil)

	resp, err := svc.Delete(context.Background(), tenantID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.LinesDeleted)
	require.Len(t, pub.events, 1)
	deleted, ok := pub.events[0].(*sale.SalesOrderDeletedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(2), deleted.LinesDeleted)
	assert.Equal(t, order.ID, deleted.OrderID)
}

func TestOrderService_Delete_NotFound(t *testing.T) {
	svc, orders, _, pub := newOrderService()
	tenantID, id := uuid.New(), uuid.New()
	orders.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Delete(context.Background(), tenantID, id)

	assert.ErrorIs(t, err, sale.ErrOrderNotFound)
	orders.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, pub.events)
}

func TestOrderService_List(t *testing.T) {
	svc, orders, _, _ := newOrderService()
	tenantID := uuid.New()
	order := existingOrder(t, tenantID)

	match := mock.MatchedBy(func(f shared.Filter) bool {
		return f.OrderBy == "created_at" && f.OrderDir == "desc" && f.Filters["partner_name"] == "ACME"
	})
	orders.On("FindAllForTenant", mock.Anything, tenantID, match).Return([]sale.SalesOrder{*order}, nil)
	orders.On("CountForTenant", mock.Anything, tenantID, match).Return(int64(1), nil)

	items, total, err := svc.List(context.Background(), tenantID, SalesOrderListFilter{PartnerName: "ACME"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, order.ID, items[0].ID)
}

func TestOrderService_InvoiceSummary(t *testing.T) {
	svc, orders, lines, _ := newOrderService()
	tenantID := uuid.New()
	order := existingOrder(t, tenantID)

	l1, err := sale.NewInvoiceLine(tenantID, order.ID, sale.InvoiceLineFields{InvoiceValue: 0.1, InvoiceTax: 1})
	require.NoError(t, err)
	l2, err := sale.NewInvoiceLine(tenantID, order.ID, sale.InvoiceLineFields{InvoiceValue: 0.2, InvoiceTax: 2})
	require.NoError(t, err)

	orders.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
	lines.On("FindByOrder", mock.Anything, tenantID, order.ID).Return([]sale.InvoiceLine{*l1, *l2}, nil)

	summary, err := svc.InvoiceSummary(context.Background(), tenantID, order.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.LineCount)
	assert.Equal(t, "0.3", summary.InvoiceValue.String())
	assert.Equal(t, "3", summary.InvoiceTax.String())
	assert.Equal(t, "3.3", summary.InvoiceTotal.String())
}

func TestOrderService_InvoiceSummary_Empty(t *testing.T) {
	summary := SummarizeInvoiceLines(uuid.New(), nil)
	assert.Equal(t, 0, summary.LineCount)
	assert.True(t, summary.InvoiceTotal.IsZero())
}
