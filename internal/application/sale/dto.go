package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yunmao/backend/internal/domain/sale"
)

// CreateSalesOrderRequest creates a sales order
type CreateSalesOrderRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	PartnerName string     `json:"partner_name" binding:"max=200"`
	OrderDate   *time.Time `json:"order_date"`
}

// SalesOrderListFilter filters the sales order list
type SalesOrderListFilter struct {
	Search      string `form:"search"`
	PartnerName string `form:"partner_name"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SalesOrderResponse is the sales order returned to clients
type SalesOrderResponse struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	PartnerName string    `json:"partner_name"`
	OrderDate   time.Time `json:"order_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeleteSalesOrderResponse reports what an order deletion removed
type DeleteSalesOrderResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	LinesDeleted int64     `json:"lines_deleted"`
}

// InvoiceSummaryResponse aggregates the stored amounts of one order's lines.
// Sums are exact decimal additions of the stored float values.
type InvoiceSummaryResponse struct {
	OrderID      uuid.UUID       `json:"order_id"`
	LineCount    int             `json:"line_count"`
	InvoiceValue decimal.Decimal `json:"invoice_value"`
	InvoiceTax   decimal.Decimal `json:"invoice_tax"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
}

// CreateInvoiceLineRequest creates an invoice line. OrderID is checked by the
// domain so that a missing order yields ORDER_REQUIRED.
type CreateInvoiceLineRequest struct {
	OrderID       uuid.UUID   `json:"order_id"`
	Name          string      `json:"name" binding:"max=255"`
	Date          *time.Time  `json:"date"`
	Rate          float64     `json:"rate" binding:"finite"`
	InvoiceType   string      `json:"invoice_type" binding:"max=100"`
	ExpenseType   string      `json:"expense_type" binding:"max=100"`
	InvoiceValue  float64     `json:"invoice_value" binding:"finite"`
	InvoiceTax    float64     `json:"invoice_tax" binding:"finite"`
	AttachmentIDs []uuid.UUID `json:"attachment_ids" binding:"omitempty,max=100"`
}

// Fields returns the editable fields of the request
func (r CreateInvoiceLineRequest) Fields() sale.InvoiceLineFields {
	return sale.InvoiceLineFields{
		Name:         r.Name,
		Date:         r.Date,
		Rate:         r.Rate,
		InvoiceType:  r.InvoiceType,
		ExpenseType:  r.ExpenseType,
		InvoiceValue: r.InvoiceValue,
		InvoiceTax:   r.InvoiceTax,
	}
}

// UpdateInvoiceLineRequest replaces every editable field of a line.
// A nil AttachmentIDs leaves the links unchanged.
type UpdateInvoiceLineRequest struct {
	Name          string       `json:"name" binding:"max=255"`
	Date          *time.Time   `json:"date"`
	Rate          float64      `json:"rate" binding:"finite"`
	InvoiceType   string       `json:"invoice_type" binding:"max=100"`
	ExpenseType   string       `json:"expense_type" binding:"max=100"`
	InvoiceValue  float64      `json:"invoice_value" binding:"finite"`
	InvoiceTax    float64      `json:"invoice_tax" binding:"finite"`
	AttachmentIDs *[]uuid.UUID `json:"attachment_ids"`
}

// Fields returns the editable fields of the request
func (r UpdateInvoiceLineRequest) Fields() sale.InvoiceLineFields {
	return sale.InvoiceLineFields{
		Name:         r.Name,
		Date:         r.Date,
		Rate:         r.Rate,
		InvoiceType:  r.InvoiceType,
		ExpenseType:  r.ExpenseType,
		InvoiceValue: r.InvoiceValue,
		InvoiceTax:   r.InvoiceTax,
	}
}

// SetAmountsRequest changes one or both operands of the total
type SetAmountsRequest struct {
	InvoiceValue *float64 `json:"invoice_value" binding:"omitempty,finite"`
	InvoiceTax   *float64 `json:"invoice_tax" binding:"omitempty,finite"`
}

// ReplaceAttachmentsRequest sets the linked attachments to exactly this set
type ReplaceAttachmentsRequest struct {
	AttachmentIDs []uuid.UUID `json:"attachment_ids" binding:"max=100"`
}

// InvoiceLineListFilter filters the invoice line list
type InvoiceLineListFilter struct {
	Search      string     `form:"search"`
	OrderID     *uuid.UUID `form:"-"` // parsed from ?order_id= by the handler
	InvoiceType string     `form:"invoice_type"`
	ExpenseType string     `form:"expense_type"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceLineResponse is the invoice line returned to clients
type InvoiceLineResponse struct {
	ID            uuid.UUID   `json:"id"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	OrderID       uuid.UUID   `json:"order_id"`
	Name          string      `json:"name"`
	Date          *time.Time  `json:"date,omitempty"`
	Rate          float64     `json:"rate"`
	InvoiceType   string      `json:"invoice_type"`
	ExpenseType   string      `json:"expense_type"`
	InvoiceValue  float64     `json:"invoice_value"`
	InvoiceTax    float64     `json:"invoice_tax"`
	InvoiceTotal  float64     `json:"invoice_total"`
	AttachmentIDs []uuid.UUID `json:"attachment_ids"`
	Version       int         `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ToSalesOrderResponse converts a domain SalesOrder
func ToSalesOrderResponse(o *sale.SalesOrder) SalesOrderResponse {
	return SalesOrderResponse{
		ID:          o.ID,
		TenantID:    o.TenantID,
		Name:        o.Name,
		PartnerName: o.PartnerName,
		OrderDate:   o.OrderDate,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ToInvoiceLineResponse converts a domain InvoiceLine
func ToInvoiceLineResponse(l *sale.InvoiceLine) InvoiceLineResponse {
	ids := make([]uuid.UUID, len(l.AttachmentIDs))
	copy(ids, l.AttachmentIDs)
	return InvoiceLineResponse{
		ID:            l.ID,
		TenantID:      l.TenantID,
		OrderID:       l.OrderID,
		Name:          l.Name,
		Date:          l.Date,
		Rate:          l.Rate,
		InvoiceType:   l.InvoiceType,
		ExpenseType:   l.ExpenseType,
		InvoiceValue:  l.InvoiceValue,
		InvoiceTax:    l.InvoiceTax,
		InvoiceTotal:  l.InvoiceTotal,
		AttachmentIDs: ids,
		Version:       l.Version,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// ToInvoiceLineResponses converts a slice of lines
func ToInvoiceLineResponses(lines []sale.InvoiceLine) []InvoiceLineResponse {
	out := make([]InvoiceLineResponse, len(lines))
	for i := range lines {
		out[i] = ToInvoiceLineResponse(&lines[i])
	}
	return out
}

// SummarizeInvoiceLines adds up the stored amounts of lines with decimal arithmetic
func SummarizeInvoiceLines(orderID uuid.UUID, lines []sale.InvoiceLine) InvoiceSummaryResponse {
	summary := InvoiceSummaryResponse{
		OrderID:      orderID,
		LineCount:    len(lines),
		InvoiceValue: decimal.Zero,
		InvoiceTax:   decimal.Zero,
		InvoiceTotal: decimal.Zero,
	}
	for i := range lines {
		summary.InvoiceValue = summary.InvoiceValue.Add(decimal.NewFromFloat(lines[i].InvoiceValue))
		summary.InvoiceTax = summary.InvoiceTax.Add(decimal.NewFromFloat(lines[i].InvoiceTax))
		summary.InvoiceTotal = summary.InvoiceTotal.Add(decimal.NewFromFloat(lines[i].InvoiceTotal))
	}
	return summary
}
