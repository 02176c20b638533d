package models

import (
	"github.com/yunmao/backend/internal/domain/purchase"
)

// ContractModel is the persistence model for purchase contracts.
// name is NOT NULL with an empty-string default and a non-unique index.
type ContractModel struct {
	TenantAggregateModel
	Name string `gorm:"type:varchar(255);not null;default:'';index:idx_purchase_contracts_name"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "purchase_contracts"
}

// ToDomain converts the model to a domain Contract
func (m *ContractModel) ToDomain() *purchase.Contract {
	return &purchase.Contract{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
	}
}

// FromDomain populates the model from a domain Contract
func (m *ContractModel) FromDomain(c *purchase.Contract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
}

// ContractModelFromDomain creates a model from a domain Contract
func ContractModelFromDomain(c *purchase.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}
