package purchase

import (
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// AggregateTypeContract is the aggregate type for purchase contracts
const AggregateTypeContract = "Contract"

// Event type constants for Contract
const (
	EventTypeContractCreated    = "ContractCreated"
	EventTypeContractRenamed    = "ContractRenamed"
	EventTypeContractDuplicated = "ContractDuplicated"
	EventTypeContractDeleted    = "ContractDeleted"
)

// ContractCreatedEvent is published when a contract is created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	Name       string    `json:"name"`
}

// NewContractCreatedEvent creates a new ContractCreatedEvent
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		Name:            c.Name,
	}
}

// ContractRenamedEvent is published when the contract number changes
type ContractRenamedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	OldName    string    `json:"old_name"`
	NewName    string    `json:"new_name"`
}

// NewContractRenamedEvent creates a new ContractRenamedEvent
func NewContractRenamedEvent(c *Contract, oldName string) *ContractRenamedEvent {
	return &ContractRenamedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractRenamed, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		OldName:         oldName,
		NewName:         c.Name,
	}
}

// ContractDuplicatedEvent is published on the copy produced by Duplicate
type ContractDuplicatedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	SourceID   uuid.UUID `json:"source_id"`
}

// NewContractDuplicatedEvent creates a new ContractDuplicatedEvent
func NewContractDuplicatedEvent(c *Contract, sourceID uuid.UUID) *ContractDuplicatedEvent {
	return &ContractDuplicatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractDuplicated, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		SourceID:        sourceID,
	}
}

// ContractDeletedEvent is published after a contract is removed
type ContractDeletedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	Name       string    `json:"name"`
}

// NewContractDeletedEvent creates a new ContractDeletedEvent
func NewContractDeletedEvent(c *Contract) *ContractDeletedEvent {
	return &ContractDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractDeleted, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		Name:            c.Name,
	}
}
