package models

import (
	"time"

	"github.com/yunmao/backend/internal/domain/sale"
)

// SalesOrderModel is the persistence model for sales orders
type SalesOrderModel struct {
	TenantAggregateModel
	Name        string    `gorm:"type:varchar(100);not null;index"`
	PartnerName string    `gorm:"type:varchar(200);not null;default:''"`
	OrderDate   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *sale.SalesOrder {
	return &sale.SalesOrder{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		PartnerName:         m.PartnerName,
		OrderDate:           m.OrderDate,
	}
}

// FromDomain populates the model from a domain SalesOrder
func (m *SalesOrderModel) FromDomain(o *sale.SalesOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.Name = o.Name
	m.PartnerName = o.PartnerName
	m.OrderDate = o.OrderDate
}

// SalesOrderModelFromDomain creates a model from a domain SalesOrder
func SalesOrderModelFromDomain(o *sale.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}
