package handler

import (
	"github.com/gin-gonic/gin"
	attachmentapp "github.com/yunmao/backend/internal/application/attachment"
	saleapp "github.com/yunmao/backend/internal/application/sale"
)

// AttachmentHandler handles attachment metadata endpoints
type AttachmentHandler struct {
	BaseHandler
	attachmentService *attachmentapp.AttachmentService
	lineService       *saleapp.InvoiceLineService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *attachmentapp.AttachmentService, lineService *saleapp.InvoiceLineService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		lineService:       lineService,
	}
}

// Register handles POST /attachments: register attachment metadata.
// The object must already exist under storage_key; no bytes are uploaded here.
func (h *AttachmentHandler) Register(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req attachmentapp.RegisterAttachmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	att, err := h.attachmentService.Register(c.Request.Context(), tenantID, req, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, att)
}

// GetByID handles GET /attachments/:id: get attachment metadata.
func (h *AttachmentHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "attachment")
	if !ok {
		return
	}

	att, err := h.attachmentService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, att)
}

// ListInvoiceLines handles GET /attachments/:id/invoice-lines: list the invoice lines linking an attachment.
func (h *AttachmentHandler) ListInvoiceLines(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "attachment")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.attachmentService.GetByID(ctx, tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	lines, err := h.lineService.LinesForAttachment(ctx, tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}
