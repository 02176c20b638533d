package sale

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appattachment "github.com/yunmao/backend/internal/application/attachment"
	appevent "github.com/yunmao/backend/internal/application/event"
	"github.com/yunmao/backend/internal/domain/attachment"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Invoice line errors
var (
	ErrInvoiceLineNotFound = shared.NewDomainError("INVOICE_LINE_NOT_FOUND", "Invoice line not found")
	ErrAttachmentNotLinked = shared.NewDomainError("ATTACHMENT_NOT_LINKED", "Attachment is not linked to this invoice line")
)

// InvoiceLineService handles invoice line operations
type InvoiceLineService struct {
	lineRepo       sale.InvoiceLineRepository
	orderRepo      sale.SalesOrderRepository
	attachmentRepo attachment.Repository
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceLineService creates a new InvoiceLineService
func NewInvoiceLineService(
	lineRepo sale.InvoiceLineRepository,
	orderRepo sale.SalesOrderRepository,
	attachmentRepo attachment.Repository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InvoiceLineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceLineService{
		lineRepo:       lineRepo,
		orderRepo:      orderRepo,
		attachmentRepo: attachmentRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Create creates an invoice line under an existing order
func (s *InvoiceLineService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceLineRequest, createdBy *uuid.UUID) (*InvoiceLineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "create",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, req.OrderID.String())
	defer span.End()

	line, err := sale.NewInvoiceLine(tenantID, req.OrderID, req.Fields())
	if err != nil {
		return nil, err
	}

	exists, err := s.orderRepo.ExistsForTenant(ctx, tenantID, req.OrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !exists {
		return nil, sale.ErrOrderNotFound
	}

	if len(req.AttachmentIDs) > 0 {
		if err := appattachment.EnsureAttachmentsExist(ctx, s.attachmentRepo, tenantID, req.AttachmentIDs); err != nil {
			return nil, err
		}
		line.AttachFiles(req.AttachmentIDs...)
	}
	if createdBy != nil {
		line.SetCreatedBy(*createdBy)
	}

	if err := s.lineRepo.Save(ctx, line); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceLineID, line.ID.String(),
		telemetry.SpanAttrInvoiceTotal, line.InvoiceTotal,
	)
	appevent.PublishPending(ctx, s.publisher, s.logger, line)

	resp := ToInvoiceLineResponse(line)
	return &resp, nil
}

// GetByID retrieves an invoice line with its attachment IDs
func (s *InvoiceLineService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceLineResponse, error) {
	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceLineResponse(line)
	return &resp, nil
}

// List lists invoice lines. Without an explicit order they are sorted by
// order, then creation.
func (s *InvoiceLineService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceLineListFilter) ([]InvoiceLineResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.OrderID != nil {
		domainFilter.Filters["order_id"] = *filter.OrderID
	}
	if filter.InvoiceType != "" {
		domainFilter.Filters["invoice_type"] = filter.InvoiceType
	}
	if filter.ExpenseType != "" {
		domainFilter.Filters["expense_type"] = filter.ExpenseType
	}

	lines, err := s.lineRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.lineRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToInvoiceLineResponses(lines), total, nil
}

// ListByOrder returns every line of an order
func (s *InvoiceLineService) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]InvoiceLineResponse, error) {
	exists, err := s.orderRepo.ExistsForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, sale.ErrOrderNotFound
	}
	lines, err := s.lineRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceLineResponses(lines), nil
}

// Update replaces the editable fields. The total is recomputed before the write.
func (s *InvoiceLineService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceLineRequest) (*InvoiceLineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "update",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := line.Update(req.Fields()); err != nil {
		return nil, err
	}
	if req.AttachmentIDs != nil {
		if err := appattachment.EnsureAttachmentsExist(ctx, s.attachmentRepo, tenantID, *req.AttachmentIDs); err != nil {
			return nil, err
		}
		line.ReplaceAttachments(*req.AttachmentIDs)
	}
	return s.save(ctx, span, line)
}

// SetAmounts changes the value and/or tax of a line
func (s *InvoiceLineService) SetAmounts(ctx context.Context, tenantID, id uuid.UUID, req SetAmountsRequest) (*InvoiceLineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "set_amounts",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	value, tax := line.InvoiceValue, line.InvoiceTax
	if req.InvoiceValue != nil {
		value = *req.InvoiceValue
	}
	if req.InvoiceTax != nil {
		tax = *req.InvoiceTax
	}
	if err := line.SetAmounts(value, tax); err != nil {
		return nil, err
	}
	return s.save(ctx, span, line)
}

// RecomputeTotal rewrites the stored total from the stored operands.
// Running it on a consistent line changes nothing and writes nothing.
func (s *InvoiceLineService) RecomputeTotal(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceLineResponse, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "recompute_total",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, false, err
	}
	oldTotal := line.InvoiceTotal
	if !line.RecomputeTotal() {
		resp := ToInvoiceLineResponse(line)
		return &resp, false, nil
	}

	s.logger.Warn("Stored invoice total was stale",
		zap.String("line_id", line.ID.String()),
		zap.Float64("stored_total", oldTotal),
		zap.Float64("computed_total", line.InvoiceTotal),
	)
	line.AddDomainEvent(sale.NewInvoiceLineTotalRecomputedEvent(line, oldTotal))
	resp, err := s.save(ctx, span, line)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// ReplaceAttachments sets the linked attachments to exactly the given set
func (s *InvoiceLineService) ReplaceAttachments(ctx context.Context, tenantID, id uuid.UUID, req ReplaceAttachmentsRequest) (*InvoiceLineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "replace_attachments",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := appattachment.EnsureAttachmentsExist(ctx, s.attachmentRepo, tenantID, req.AttachmentIDs); err != nil {
		return nil, err
	}
	line.ReplaceAttachments(req.AttachmentIDs)
	return s.save(ctx, span, line)
}

// DetachAttachment unlinks one attachment. The attachment record is kept.
func (s *InvoiceLineService) DetachAttachment(ctx context.Context, tenantID, id, attachmentID uuid.UUID) (*InvoiceLineResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "detach_attachment",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String(),
		telemetry.SpanAttrAttachmentID, attachmentID.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !line.DetachFile(attachmentID) {
		return nil, ErrAttachmentNotLinked
	}
	return s.save(ctx, span, line)
}

// Delete removes the line and its attachment links. Attachments survive.
func (s *InvoiceLineService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_line", "delete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceLineID, id.String())
	defer span.End()

	line, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.lineRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvoiceLineNotFound
		}
		return err
	}
	line.MarkDeleted()
	appevent.PublishPending(ctx, s.publisher, s.logger, line)
	return nil
}

// LinesForAttachment lists the lines that link an attachment
func (s *InvoiceLineService) LinesForAttachment(ctx context.Context, tenantID, attachmentID uuid.UUID) ([]InvoiceLineResponse, error) {
	lines, err := s.lineRepo.FindByAttachment(ctx, tenantID, attachmentID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceLineResponses(lines), nil
}

func (s *InvoiceLineService) save(ctx context.Context, span trace.Span, line *sale.InvoiceLine) (*InvoiceLineResponse, error) {
	if err := s.lineRepo.Save(ctx, line); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceTotal, line.InvoiceTotal)
	appevent.PublishPending(ctx, s.publisher, s.logger, line)
	resp := ToInvoiceLineResponse(line)
	return &resp, nil
}

func (s *InvoiceLineService) find(ctx context.Context, tenantID, id uuid.UUID) (*sale.InvoiceLine, error) {
	line, err := s.lineRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvoiceLineNotFound
		}
		return nil, err
	}
	return line, nil
}
