package event

import (
	"context"

	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceMetricsHandler turns invoice line and sales order events into
// OpenTelemetry counters and the invoice total histogram.
type InvoiceMetricsHandler struct {
	metrics *telemetry.InvoiceMetrics
	logger  *zap.Logger
}

// NewInvoiceMetricsHandler creates an InvoiceMetricsHandler
func NewInvoiceMetricsHandler(metrics *telemetry.InvoiceMetrics, logger *zap.Logger) *InvoiceMetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceMetricsHandler{
		metrics: metrics,
		logger:  logger.Named("invoice_metrics"),
	}
}

// EventTypes returns the sale events this handler records
func (h *InvoiceMetricsHandler) EventTypes() []string {
	return []string{
		sale.EventTypeInvoiceLineCreated,
		sale.EventTypeInvoiceLineTotalRecomputed,
		sale.EventTypeInvoiceLineDeleted,
		sale.EventTypeSalesOrderDeleted,
	}
}

// Handle records the event. Unknown event types are ignored.
func (h *InvoiceMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.metrics == nil {
		return nil
	}
	tenant := telemetry.AttrTenantID.String(event.TenantID().String())
	eventType := telemetry.AttrEventType.String(event.EventType())

	switch e := event.(type) {
	case *sale.InvoiceLineCreatedEvent:
		h.metrics.LinesCreated.Inc(ctx, tenant)
		h.metrics.LineTotal.Record(ctx, e.InvoiceTotal, tenant, eventType)

	case *sale.InvoiceLineTotalRecomputedEvent:
		h.metrics.TotalsRecomputed.Inc(ctx, tenant)
		h.metrics.LineTotal.Record(ctx, e.NewTotal, tenant, eventType)
		h.logger.Debug("Invoice total recomputed",
			zap.String("line_id", e.LineID.String()),
			zap.Float64("old_total", e.OldTotal),
			zap.Float64("new_total", e.NewTotal),
		)

	case *sale.InvoiceLineDeletedEvent:
		h.metrics.LinesDeleted.Inc(ctx, tenant)

	case *sale.SalesOrderDeletedEvent:
		if e.LinesDeleted > 0 {
			h.metrics.CascadeDeletes.Inc(ctx, tenant)
			h.metrics.LinesDeleted.Add(ctx, e.LinesDeleted, tenant)
		}
		h.logger.Info("Sales order deleted",
			zap.String("order_id", e.OrderID.String()),
			zap.Int64("lines_deleted", e.LinesDeleted),
		)

	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*InvoiceMetricsHandler)(nil)
