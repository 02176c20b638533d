package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	saleapp "github.com/yunmao/backend/internal/application/sale"
)

// InvoiceLineHandler handles invoice line endpoints
type InvoiceLineHandler struct {
	BaseHandler
	lineService *saleapp.InvoiceLineService
}

// NewInvoiceLineHandler creates a new InvoiceLineHandler
func NewInvoiceLineHandler(lineService *saleapp.InvoiceLineService) *InvoiceLineHandler {
	return &InvoiceLineHandler{lineService: lineService}
}

// RecomputeTotalResponse reports the line after a recompute and whether the
// stored total had to change
type RecomputeTotalResponse struct {
	Line    *saleapp.InvoiceLineResponse `json:"line"`
	Changed bool                         `json:"changed"`
}

// Create handles POST /invoice-lines: create an invoice line.
// order_id is required; invoice_total is computed as value + tax.
func (h *InvoiceLineHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req saleapp.CreateInvoiceLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.lineService.Create(c.Request.Context(), tenantID, req, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, line)
}

// GetByID handles GET /invoice-lines/:id: get an invoice line.
func (h *InvoiceLineHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	line, err := h.lineService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// List handles GET /invoice-lines: list invoice lines.
func (h *InvoiceLineHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter saleapp.InvoiceLineListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if raw := c.Query("order_id"); raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid order ID format")
			return
		}
		filter.OrderID = &orderID
	}

	lines, total, err := h.lineService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, lines, total, max(filter.Page, 1), filter.PageSize)
}

// Update handles PUT /invoice-lines/:id: update an invoice line.
// Replaces every editable field; the total is recomputed on write.
func (h *InvoiceLineHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	var req saleapp.UpdateInvoiceLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.lineService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// SetAmounts handles PATCH /invoice-lines/:id/amounts: change the value and/or tax of an invoice line.
func (h *InvoiceLineHandler) SetAmounts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	var req saleapp.SetAmountsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.lineService.SetAmounts(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// RecomputeTotal handles POST /invoice-lines/:id/recompute: recompute the stored total of an invoice line.
// Writes only when the stored total differs from value + tax.
func (h *InvoiceLineHandler) RecomputeTotal(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	line, changed, err := h.lineService.RecomputeTotal(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RecomputeTotalResponse{Line: line, Changed: changed})
}

// ReplaceAttachments handles PUT /invoice-lines/:id/attachments: set the attachments linked to an invoice line.
func (h *InvoiceLineHandler) ReplaceAttachments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	var req saleapp.ReplaceAttachmentsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.lineService.ReplaceAttachments(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// DetachAttachment handles DELETE /invoice-lines/:id/attachments/:attachment_id: unlink one attachment from an invoice line.
// The attachment itself is kept.
func (h *InvoiceLineHandler) DetachAttachment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}
	attachmentID, ok := h.parseUUIDParam(c, "attachment_id", "attachment")
	if !ok {
		return
	}

	line, err := h.lineService.DetachAttachment(c.Request.Context(), tenantID, id, attachmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// Delete handles DELETE /invoice-lines/:id: delete an invoice line.
// Removes the line and its attachment links; attachments are kept.
func (h *InvoiceLineHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "invoice line")
	if !ok {
		return
	}

	if err := h.lineService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
