package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/sale"
	"gorm.io/gorm"
)

// InvoiceLineModel is the persistence model for sale invoice lines.
// Order is never loaded; it declares the cascading foreign key for AutoMigrate.
type InvoiceLineModel struct {
	TenantAggregateModel
	OrderID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Order         *SalesOrderModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Name          string           `gorm:"type:varchar(255);not null;default:''"`
	Date          *time.Time       `gorm:"column:date"`
	Rate          float64          `gorm:"type:double precision;not null;default:0"`
	InvoiceType   string           `gorm:"type:varchar(100);not null;default:''"`
	ExpenseType   string           `gorm:"type:varchar(100);not null;default:''"`
	InvoiceValue  float64          `gorm:"type:double precision;not null;default:0"`
	InvoiceTax    float64          `gorm:"type:double precision;not null;default:0"`
	InvoiceTotal  float64          `gorm:"type:double precision;not null;default:0"`
	AttachmentIDs []uuid.UUID      `gorm:"-"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "sale_invoice_lines"
}

// BeforeSave keeps the stored total equal to value + tax on every write,
// whatever path produced the model.
func (m *InvoiceLineModel) BeforeSave(tx *gorm.DB) error {
	m.InvoiceTotal = sale.ComputeTotal(m.InvoiceValue, m.InvoiceTax)
	return nil
}

// ToDomain converts the model to a domain InvoiceLine
func (m *InvoiceLineModel) ToDomain() *sale.InvoiceLine {
	ids := make([]uuid.UUID, len(m.AttachmentIDs))
	copy(ids, m.AttachmentIDs)
	return &sale.InvoiceLine{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		OrderID:             m.OrderID,
		Name:                m.Name,
		Date:                m.Date,
		Rate:                m.Rate,
		InvoiceType:         m.InvoiceType,
		ExpenseType:         m.ExpenseType,
		InvoiceValue:        m.InvoiceValue,
		InvoiceTax:          m.InvoiceTax,
		InvoiceTotal:        m.InvoiceTotal,
		AttachmentIDs:       ids,
	}
}

// FromDomain populates the model from a domain InvoiceLine
func (m *InvoiceLineModel) FromDomain(l *sale.InvoiceLine) {
	m.FromDomainTenantAggregateRoot(l.TenantAggregateRoot)
	m.OrderID = l.OrderID
	m.Name = l.Name
	m.Date = l.Date
	m.Rate = l.Rate
	m.InvoiceType = l.InvoiceType
	m.ExpenseType = l.ExpenseType
	m.InvoiceValue = l.InvoiceValue
	m.InvoiceTax = l.InvoiceTax
	m.InvoiceTotal = l.InvoiceTotal
	m.AttachmentIDs = append([]uuid.UUID(nil), l.AttachmentIDs...)
}

// InvoiceLineModelFromDomain creates a model from a domain InvoiceLine
func InvoiceLineModelFromDomain(l *sale.InvoiceLine) *InvoiceLineModel {
	m := &InvoiceLineModel{}
	m.FromDomain(l)
	return m
}

// InvoiceLineAttachmentModel is one row of the line/attachment join table.
// Rows belong to the link only: removing one never touches the attachment.
type InvoiceLineAttachmentModel struct {
	InvoiceLineID uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttachmentID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineAttachmentModel) TableName() string {
	return "sale_invoice_line_attachment_rel"
}
