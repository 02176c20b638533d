// Package purchase implements the purchase contract use cases.
package purchase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appevent "github.com/yunmao/backend/internal/application/event"
	"github.com/yunmao/backend/internal/domain/purchase"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrContractNotFound is returned when a contract does not exist in the tenant
var ErrContractNotFound = shared.NewDomainError("CONTRACT_NOT_FOUND", "Contract not found")

// ContractService handles purchase contract operations
type ContractService struct {
	repo      purchase.ContractRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(repo purchase.ContractRepository, publisher shared.EventPublisher, logger *zap.Logger) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a contract
func (s *ContractService) Create(ctx context.Context, tenantID uuid.UUID, req CreateContractRequest, createdBy *uuid.UUID) (*ContractResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "create",
		telemetry.SpanAttrTenantID, tenantID.String())
	defer span.End()

	contract, err := purchase.NewContract(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		contract.SetCreatedBy(*createdBy)
	}

	if err := s.repo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrContractID, contract.ID.String())
	appevent.PublishPending(ctx, s.publisher, s.logger, contract)

	resp := ToContractResponse(contract)
	return &resp, nil
}

// GetByID retrieves a contract
func (s *ContractService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ContractResponse, error) {
	contract, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToContractResponse(contract)
	return &resp, nil
}

// List lists contracts with pagination
func (s *ContractService) List(ctx context.Context, tenantID uuid.UUID, filter ContractListFilter) ([]ContractResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Name != "" {
		domainFilter.Filters["name"] = filter.Name
	}

	contracts, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToContractResponses(contracts), total, nil
}

// FindByName returns every contract carrying the given contract number
func (s *ContractService) FindByName(ctx context.Context, tenantID uuid.UUID, name string) ([]ContractResponse, error) {
	contracts, err := s.repo.FindByName(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	return ToContractResponses(contracts), nil
}

// Update renames a contract
func (s *ContractService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "update",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrContractID, id.String())
	defer span.End()

	contract, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := contract.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	appevent.PublishPending(ctx, s.publisher, s.logger, contract)

	resp := ToContractResponse(contract)
	return &resp, nil
}

// Duplicate copies a contract. The copy does not inherit the contract number.
func (s *ContractService) Duplicate(ctx context.Context, tenantID, id uuid.UUID, createdBy *uuid.UUID) (*ContractResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "duplicate",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrContractID, id.String())
	defer span.End()

	source, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dup := source.Duplicate()
	if createdBy != nil {
		dup.SetCreatedBy(*createdBy)
	}

	if err := s.repo.Save(ctx, dup); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	appevent.PublishPending(ctx, s.publisher, s.logger, dup)

	s.logger.Info("Contract duplicated",
		zap.String("source_id", source.ID.String()),
		zap.String("contract_id", dup.ID.String()),
	)
	resp := ToContractResponse(dup)
	return &resp, nil
}

// Delete permanently deletes a contract
func (s *ContractService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "contract", "delete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrContractID, id.String())
	defer span.End()

	contract, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return ErrContractNotFound
		}
		return err
	}
	contract.AddDomainEvent(purchase.NewContractDeletedEvent(contract))
	appevent.PublishPending(ctx, s.publisher, s.logger, contract)
	return nil
}

func (s *ContractService) find(ctx context.Context, tenantID, id uuid.UUID) (*purchase.Contract, error) {
	contract, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	return contract, nil
}
