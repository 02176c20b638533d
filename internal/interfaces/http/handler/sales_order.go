package handler

import (
	"github.com/gin-gonic/gin"
	saleapp "github.com/yunmao/backend/internal/application/sale"
)

// SalesOrderHandler handles sales order endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService *saleapp.OrderService
	lineService  *saleapp.InvoiceLineService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *saleapp.OrderService, lineService *saleapp.InvoiceLineService) *SalesOrderHandler {
	return &SalesOrderHandler{
		orderService: orderService,
		lineService:  lineService,
	}
}

// Create handles POST /sales-orders: create a sales order.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req saleapp.CreateSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, req, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /sales-orders/:id: get a sales order.
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /sales-orders: list sales orders.
func (h *SalesOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter saleapp.SalesOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, max(filter.Page, 1), filter.PageSize)
}

// Delete handles DELETE /sales-orders/:id: delete a sales order.
// Deletes the order and, by cascade, all of its invoice lines.
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	result, err := h.orderService.Delete(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListInvoiceLines handles GET /sales-orders/:id/invoice-lines: list the invoice lines of a sales order.
func (h *SalesOrderHandler) ListInvoiceLines(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	lines, err := h.lineService.ListByOrder(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// InvoiceSummary handles GET /sales-orders/:id/invoice-summary: sum the stored invoice amounts of a sales order.
func (h *SalesOrderHandler) InvoiceSummary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "order")
	if !ok {
		return
	}

	summary, err := h.orderService.InvoiceSummary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
