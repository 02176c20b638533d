package purchase

import (
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/purchase"
)

// CreateContractRequest creates a purchase contract. Name may be omitted and
// is then stored as the empty string.
type CreateContractRequest struct {
	Name string `json:"name" binding:"max=255"`
}

// UpdateContractRequest renames a contract. A nil Name leaves it unchanged;
// an empty string clears it.
type UpdateContractRequest struct {
	Name *string `json:"name" binding:"omitempty,max=255"`
}

// ContractListFilter filters the contract list
type ContractListFilter struct {
	Search   string `form:"search"`
	Name     string `form:"name"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ContractResponse is the contract returned to clients
type ContractResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name"`
	Version   int        `json:"version"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToContractResponse converts a domain Contract to ContractResponse
func ToContractResponse(c *purchase.Contract) ContractResponse {
	return ContractResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Version:   c.Version,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToContractResponses converts a slice of contracts
func ToContractResponses(contracts []purchase.Contract) []ContractResponse {
	out := make([]ContractResponse, len(contracts))
	for i := range contracts {
		out[i] = ToContractResponse(&contracts[i])
	}
	return out
}
