// Package purchase holds the purchase-side aggregates.
package purchase

import (
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// MaxContractNameLength bounds the contract number column
const MaxContractNameLength = 255

// DefaultContractName is the value a contract number takes when none is given.
// It is also what a duplicated contract starts with.
const DefaultContractName = ""

// Contract is a purchase contract identified by its contract number (Name).
//
// Name is required at the storage level (NOT NULL) but defaults to the empty
// string, so an empty Name is a stored value, not an absent one.
type Contract struct {
	shared.TenantAggregateRoot
	Name string
}

// NewContract creates a contract. The name is stored as given, surrounding
// whitespace included; an empty name is kept as "".
func NewContract(tenantID uuid.UUID, name string) (*Contract, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID cannot be empty")
	}
	if err := validateContractName(name); err != nil {
		return nil, err
	}

	contract := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
	}

	contract.AddDomainEvent(NewContractCreatedEvent(contract))

	return contract, nil
}

// Rename changes the contract number
func (c *Contract) Rename(name string) error {
	if err := validateContractName(name); err != nil {
		return err
	}
	if name == c.Name {
		return nil
	}

	oldName := c.Name
	c.Name = name
	c.IncrementVersion()

	c.AddDomainEvent(NewContractRenamedEvent(c, oldName))
	return nil
}

// Duplicate returns a new contract in the same tenant.
// The contract number is not carried over: the copy starts with DefaultContractName.
func (c *Contract) Duplicate() *Contract {
	dup := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(c.TenantID),
		Name:                DefaultContractName,
	}
	dup.AddDomainEvent(NewContractDuplicatedEvent(dup, c.ID))
	return dup
}

func validateContractName(name string) error {
	if len(name) > MaxContractNameLength {
		return shared.NewDomainError("INVALID_NAME", "Contract number cannot exceed 255 characters")
	}
	return nil
}
