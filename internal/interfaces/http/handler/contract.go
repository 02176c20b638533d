package handler

import (
	"github.com/gin-gonic/gin"
	purchaseapp "github.com/yunmao/backend/internal/application/purchase"
)

// ContractHandler handles purchase contract endpoints
type ContractHandler struct {
	BaseHandler
	contractService *purchaseapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *purchaseapp.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// Create handles POST /contracts: create a purchase contract.
// The name is optional and stored as "" when omitted.
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req purchaseapp.CreateContractRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	contract, err := h.contractService.Create(c.Request.Context(), tenantID, req, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contract)
}

// GetByID handles GET /contracts/:id: get a purchase contract.
func (h *ContractHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "contract")
	if !ok {
		return
	}

	contract, err := h.contractService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// List handles GET /contracts: list purchase contracts.
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter purchaseapp.ContractListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	contracts, total, err := h.contractService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, contracts, total, max(filter.Page, 1), filter.PageSize)
}

// Lookup handles GET /contracts/lookup: find contracts by exact name.
// Uses the name index. An empty name matches contracts stored with "".
func (h *ContractHandler) Lookup(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	contracts, err := h.contractService.FindByName(c.Request.Context(), tenantID, c.Query("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contracts)
}

// Update handles PUT /contracts/:id: rename a purchase contract.
// Omitting name leaves it unchanged; "" clears it.
func (h *ContractHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "contract")
	if !ok {
		return
	}

	var req purchaseapp.UpdateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contract, err := h.contractService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contract)
}

// Duplicate handles POST /contracts/:id/duplicate: duplicate a purchase contract.
// The copy gets a new ID and an empty name.
func (h *ContractHandler) Duplicate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "contract")
	if !ok {
		return
	}

	contract, err := h.contractService.Duplicate(c.Request.Context(), tenantID, id, getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contract)
}

// Delete handles DELETE /contracts/:id: delete a purchase contract.
func (h *ContractHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "contract")
	if !ok {
		return
	}

	if err := h.contractService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
