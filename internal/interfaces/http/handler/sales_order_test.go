package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	saleapp "github.com/yunmao/backend/internal/application/sale"
	"github.com/yunmao/backend/internal/interfaces/http/dto"
)

func TestSalesOrderHandler_Create(t *testing.T) {
	api := newTestAPI(t)

	order := api.createOrder("SO-001")
	assert.Equal(t, "SO-001", order.Name)
	assert.Equal(t, "Acme", order.PartnerName)

	w, env := api.do(http.MethodPost, "/api/v1/sales-orders", map[string]any{"partner_name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestSalesOrderHandler_DeleteCascadesToLines(t *testing.T) {
	api := newTestAPI(t)
	order := api.createOrder("SO-002")
	other := api.createOrder("SO-003")
	first := api.createLine(order.ID, 100, 13)
	second := api.createLine(order.ID, 50, 6.5)
	kept := api.createLine(other.ID, 10, 1)

	w, env := api.do(http.MethodDelete, "/api/v1/sales-orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[saleapp.DeleteSalesOrderResponse](t, env)
	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, int64(2), result.LinesDeleted)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		w, _ = api.do(http.MethodGet, "/api/v1/invoice-lines/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w, _ = api.do(http.MethodGet, "/api/v1/invoice-lines/"+kept.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/sales-orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesOrderHandler_InvoiceLinesAndSummary(t *testing.T) {
	api := newTestAPI(t)
	order := api.createOrder("SO-004")
	api.createLine(order.ID, 100, 13)
	api.createLine(order.ID, 0.1, 0.2)

	w, env := api.do(http.MethodGet, "/api/v1/sales-orders/"+order.ID.String()+"/invoice-lines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]saleapp.InvoiceLineResponse](t, env), 2)

	w, env = api.do(http.MethodGet, "/api/v1/sales-orders/"+order.ID.String()+"/invoice-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[saleapp.InvoiceSummaryResponse](t, env)
	assert.Equal(t, 2, summary.LineCount)
	assert.Equal(t, "100.1", summary.InvoiceValue.String())
	assert.Equal(t, "13.2", summary.InvoiceTax.String())

	w, _ = api.do(http.MethodGet, "/api/v1/sales-orders/"+uuid.NewString()+"/invoice-summary", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesOrderHandler_List(t *testing.T) {
	api := newTestAPI(t)
	api.createOrder("SO-010")
	api.createOrder("SO-011")

	w, env := api.do(http.MethodGet, "/api/v1/sales-orders?search=SO-01&page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Len(t, decode[[]saleapp.SalesOrderResponse](t, env), 1)
}
