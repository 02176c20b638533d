package sale

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// Invoice line errors
var (
	ErrOrderRequired = shared.NewDomainError("ORDER_REQUIRED", "Invoice line must reference a sales order")
	ErrOrderNotFound = shared.NewDomainError("ORDER_NOT_FOUND", "Sales order not found")
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Amounts must be finite numbers")
)

// ComputeTotal is the derived-total rule: value plus tax, unrounded.
func ComputeTotal(invoiceValue, invoiceTax float64) float64 {
	return invoiceValue + invoiceTax
}

// InvoiceLineFields are the user-editable fields of an invoice line
type InvoiceLineFields struct {
	Name         string
	Date         *time.Time
	Rate         float64
	InvoiceType  string
	ExpenseType  string
	InvoiceValue float64
	InvoiceTax   float64
}

// InvoiceLine is an invoice recorded against a sales order.
//
// InvoiceTotal is stored, and every mutator that touches InvoiceValue or
// InvoiceTax recomputes it before returning. There is no lazy path.
type InvoiceLine struct {
	shared.TenantAggregateRoot
	OrderID       uuid.UUID
	Name          string
	Date          *time.Time
	Rate          float64
	InvoiceType   string
	ExpenseType   string
	InvoiceValue  float64
	InvoiceTax    float64
	InvoiceTotal  float64
	AttachmentIDs []uuid.UUID
}

// NewInvoiceLine creates an invoice line under the given order.
// A nil order ID is rejected with ErrOrderRequired.
func NewInvoiceLine(tenantID, orderID uuid.UUID, fields InvoiceLineFields) (*InvoiceLine, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, ErrOrderRequired
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	line := &InvoiceLine{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		AttachmentIDs:       make([]uuid.UUID, 0),
	}
	line.assign(fields)
	line.RecomputeTotal()

	line.AddDomainEvent(NewInvoiceLineCreatedEvent(line))
	return line, nil
}

// RecomputeTotal sets InvoiceTotal from the current operands.
// Returns true if the stored total changed. Calling it twice in a row is a no-op
// the second time.
func (l *InvoiceLine) RecomputeTotal() bool {
	total := ComputeTotal(l.InvoiceValue, l.InvoiceTax)
	if total == l.InvoiceTotal {
		return false
	}
	l.InvoiceTotal = total
	return true
}

// TotalConsistent reports whether the stored total matches its operands exactly
func (l *InvoiceLine) TotalConsistent() bool {
	return l.InvoiceTotal == ComputeTotal(l.InvoiceValue, l.InvoiceTax)
}

// SetInvoiceValue changes the pre-tax amount and recomputes the total
func (l *InvoiceLine) SetInvoiceValue(value float64) error {
	return l.SetAmounts(value, l.InvoiceTax)
}

// SetInvoiceTax changes the tax amount and recomputes the total
func (l *InvoiceLine) SetInvoiceTax(tax float64) error {
	return l.SetAmounts(l.InvoiceValue, tax)
}

// SetAmounts changes both operands and recomputes the total
func (l *InvoiceLine) SetAmounts(value, tax float64) error {
	if !isFinite(value) || !isFinite(tax) {
		return ErrInvalidAmount
	}
	if value == l.InvoiceValue && tax == l.InvoiceTax {
		return nil
	}
	l.InvoiceValue = value
	l.InvoiceTax = tax
	l.afterAmountChange()
	l.IncrementVersion()
	return nil
}

// Update replaces every editable field and recomputes the total
func (l *InvoiceLine) Update(fields InvoiceLineFields) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	amountsChanged := fields.InvoiceValue != l.InvoiceValue || fields.InvoiceTax != l.InvoiceTax
	l.assign(fields)
	if amountsChanged {
		l.afterAmountChange()
	}
	l.IncrementVersion()
	l.AddDomainEvent(NewInvoiceLineUpdatedEvent(l))
	return nil
}

// AttachFiles links attachments to the line. Already-linked IDs are ignored.
// Returns the number of new links.
func (l *InvoiceLine) AttachFiles(attachmentIDs ...uuid.UUID) int {
	added := 0
	for _, id := range attachmentIDs {
		if id == uuid.Nil || l.HasAttachment(id) {
			continue
		}
		l.AttachmentIDs = append(l.AttachmentIDs, id)
		added++
	}
	if added > 0 {
		l.IncrementVersion()
		l.AddDomainEvent(NewInvoiceLineAttachmentsChangedEvent(l))
	}
	return added
}

// DetachFile removes a single link. The attachment itself is untouched.
func (l *InvoiceLine) DetachFile(attachmentID uuid.UUID) bool {
	idx := slices.Index(l.AttachmentIDs, attachmentID)
	if idx < 0 {
		return false
	}
	l.AttachmentIDs = slices.Delete(l.AttachmentIDs, idx, idx+1)
	l.IncrementVersion()
	l.AddDomainEvent(NewInvoiceLineAttachmentsChangedEvent(l))
	return true
}

// ReplaceAttachments sets the linked attachments to exactly the given set
func (l *InvoiceLine) ReplaceAttachments(attachmentIDs []uuid.UUID) {
	next := make([]uuid.UUID, 0, len(attachmentIDs))
	for _, id := range attachmentIDs {
		if id != uuid.Nil && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	l.AttachmentIDs = next
	l.IncrementVersion()
	l.AddDomainEvent(NewInvoiceLineAttachmentsChangedEvent(l))
}

// HasAttachment reports whether the attachment is linked to this line
func (l *InvoiceLine) HasAttachment(attachmentID uuid.UUID) bool {
	return slices.Contains(l.AttachmentIDs, attachmentID)
}

// MarkDeleted queues the deletion event
func (l *InvoiceLine) MarkDeleted() {
	l.AddDomainEvent(NewInvoiceLineDeletedEvent(l))
}

func (l *InvoiceLine) afterAmountChange() {
	oldTotal := l.InvoiceTotal
	if l.RecomputeTotal() {
		l.AddDomainEvent(NewInvoiceLineTotalRecomputedEvent(l, oldTotal))
	}
}

func (l *InvoiceLine) assign(fields InvoiceLineFields) {
	l.Name = fields.Name
	l.Date = fields.Date
	l.Rate = fields.Rate
	l.InvoiceType = fields.InvoiceType
	l.ExpenseType = fields.ExpenseType
	l.InvoiceValue = fields.InvoiceValue
	l.InvoiceTax = fields.InvoiceTax
}

func validateFields(fields InvoiceLineFields) error {
	if !isFinite(fields.InvoiceValue) || !isFinite(fields.InvoiceTax) || !isFinite(fields.Rate) {
		return ErrInvalidAmount
	}
	if len(fields.Name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Invoice number cannot exceed 255 characters")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
