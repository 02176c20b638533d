package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*telemetry.InvoiceMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewInvoiceMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func histogramCount(t *testing.T, reader *sdkmetric.ManualReader, name string) uint64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			h, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range h.DataPoints {
				count += dp.Count
			}
		}
	}
	return count
}

func newLine(t *testing.T, value, tax float64) *sale.InvoiceLine {
	t.Helper()
	line, err := sale.NewInvoiceLine(uuid.New(), uuid.New(), sale.InvoiceLineFields{
		Name:         "INV-001",
		InvoiceValue: value,
		InvoiceTax:   tax,
	})
	require.NoError(t, err)
	return line
}

func TestInvoiceMetricsHandler_EventTypes(t *testing.T) {
	h := NewInvoiceMetricsHandler(nil, nil)
	assert.ElementsMatch(t, []string{
		sale.EventTypeInvoiceLineCreated,
		sale.EventTypeInvoiceLineTotalRecomputed,
		sale.EventTypeInvoiceLineDeleted,
		sale.EventTypeSalesOrderDeleted,
	}, h.EventTypes())
}

func TestInvoiceMetricsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	metrics, reader := newTestMetrics(t)
	h := NewInvoiceMetricsHandler(metrics, zap.NewNop())

	line := newLine(t, 100, 13)
	require.NoError(t, h.Handle(ctx, sale.NewInvoiceLineCreatedEvent(line)))

	oldTotal := line.InvoiceTotal
	require.NoError(t, line.SetInvoiceTax(20))
	require.NoError(t, h.Handle(ctx, sale.NewInvoiceLineTotalRecomputedEvent(line, oldTotal)))

	require.NoError(t, h.Handle(ctx, sale.NewInvoiceLineDeletedEvent(line)))

	order, err := sale.NewSalesOrder(uuid.New(), "SO-1", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, sale.NewSalesOrderDeletedEvent(order, 3)))
	require.NoError(t, h.Handle(ctx, sale.NewSalesOrderDeletedEvent(order, 0)))

	assert.Equal(t, int64(1), counterValue(t, reader, "invoice_lines_created_total"))
	assert.Equal(t, int64(1), counterValue(t, reader, "invoice_line_totals_recomputed_total"))
	assert.Equal(t, int64(4), counterValue(t, reader, "invoice_lines_deleted_total"))
	assert.Equal(t, int64(1), counterValue(t, reader, "sales_order_cascade_deletes_total"))
	assert.Equal(t, uint64(2), histogramCount(t, reader, "invoice_line_total"))
}

func TestInvoiceMetricsHandler_NilMetrics(t *testing.T) {
	h := NewInvoiceMetricsHandler(nil, nil)
	line := newLine(t, 1, 1)
	assert.NoError(t, h.Handle(context.Background(), sale.NewInvoiceLineCreatedEvent(line)))
}

type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func TestPublishPending(t *testing.T) {
	line := newLine(t, 100, 13)
	require.NoError(t, line.SetInvoiceTax(20))
	require.Len(t, line.GetDomainEvents(), 2)

	pub := &recordingPublisher{}
	PublishPending(context.Background(), pub, zap.NewNop(), line)

	require.Len(t, pub.events, 2)
	assert.Equal(t, sale.EventTypeInvoiceLineCreated, pub.events[0].EventType())
	assert.Equal(t, sale.EventTypeInvoiceLineTotalRecomputed, pub.events[1].EventType())
	assert.Empty(t, line.GetDomainEvents())
}

func TestPublishPending_ErrorIsSwallowed(t *testing.T) {
	line := newLine(t, 1, 2)
	pub := &recordingPublisher{err: errors.New("bus down")}

	PublishPending(context.Background(), pub, zap.NewNop(), line)

	assert.Len(t, pub.events, 1)
	assert.Empty(t, line.GetDomainEvents())
}

func TestPublishPending_NilPublisherClears(t *testing.T) {
	line := newLine(t, 1, 2)
	PublishPending(context.Background(), nil, nil, line)
	assert.Empty(t, line.GetDomainEvents())
}
