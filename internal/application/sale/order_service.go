// Package sale implements the sales order and invoice line use cases.
package sale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appevent "github.com/yunmao/backend/internal/application/event"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderService handles sales orders. Deleting an order cascades to its invoice lines.
type OrderService struct {
	orderRepo sale.SalesOrderRepository
	lineRepo  sale.InvoiceLineRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo sale.SalesOrderRepository,
	lineRepo sale.InvoiceLineRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		lineRepo:  lineRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a sales order
func (s *OrderService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSalesOrderRequest, createdBy *uuid.UUID) (*SalesOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "create",
		telemetry.SpanAttrTenantID, tenantID.String())
	defer span.End()

	var orderDate time.Time
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}
	order, err := sale.NewSalesOrder(tenantID, req.Name, req.PartnerName, orderDate)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		order.SetCreatedBy(*createdBy)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, order.ID.String())
	appevent.PublishPending(ctx, s.publisher, s.logger, order)

	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves a sales order
func (s *OrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// List lists sales orders with pagination
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.PartnerName != "" {
		domainFilter.Filters["partner_name"] = filter.PartnerName
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToSalesOrderResponse(&orders[i])
	}
	return out, total, nil
}

// Delete removes the order, its invoice lines and their attachment links
func (s *OrderService) Delete(ctx context.Context, tenantID, id uuid.UUID) (*DeleteSalesOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "delete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, id.String())
	defer span.End()

	order, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	linesDeleted, err := s.orderRepo.DeleteForTenant(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sale.ErrOrderNotFound
		}
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrLinesDeleted, linesDeleted)

	order.MarkDeleted(linesDeleted)
	appevent.PublishPending(ctx, s.publisher, s.logger, order)

	s.logger.Info("Sales order deleted",
		zap.String("order_id", id.String()),
		zap.Int64("lines_deleted", linesDeleted),
	)
	return &DeleteSalesOrderResponse{OrderID: id, LinesDeleted: linesDeleted}, nil
}

// InvoiceSummary sums the stored amounts of the order's invoice lines
func (s *OrderService) InvoiceSummary(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceSummaryResponse, error) {
	if _, err := s.find(ctx, tenantID, id); err != nil {
		return nil, err
	}
	lines, err := s.lineRepo.FindByOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	summary := SummarizeInvoiceLines(id, lines)
	return &summary, nil
}

func (s *OrderService) find(ctx context.Context, tenantID, id uuid.UUID) (*sale.SalesOrder, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sale.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
