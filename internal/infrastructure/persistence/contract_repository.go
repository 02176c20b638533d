package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/purchase"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContractRepository implements purchase.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

var _ purchase.ContractRepository = (*GormContractRepository)(nil)

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchase.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a contract by ID within a tenant
func (r *GormContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchase.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists contracts, newest first by default
func (r *GormContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]purchase.Contract, error) {
	var contractModels []models.ContractModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContractModel{}).Scopes(tenantScope(tenantID)), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, ContractSortFields, "created_at")).
		Order("id DESC").
		Scopes(paginate(filter))

	if err := query.Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return contractsToDomain(contractModels), nil
}

// FindByName returns every contract with exactly this number, newest first.
// An empty name matches contracts that were never numbered.
func (r *GormContractRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) ([]purchase.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("name = ?", name).
		Order("created_at DESC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return contractsToDomain(contractModels), nil
}

// CountForTenant counts contracts matching the filter
func (r *GormContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContractModel{}).Scopes(tenantScope(tenantID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates a contract or updates it under the optimistic version check
func (r *GormContractRepository) Save(ctx context.Context, contract *purchase.Contract) error {
	model := models.ContractModelFromDomain(contract)
	if err := saveVersioned(r.db.WithContext(ctx), model, contract.ID, contract); err != nil {
		return err
	}
	contract.MarkPersisted()
	return nil
}

// DeleteForTenant permanently deletes a contract
func (r *GormContractRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&models.ContractModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormContractRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", likePattern(filter.Search))
	}
	if name, ok := filter.Filters["name"].(string); ok {
		query = query.Where("name = ?", name)
	}
	return query
}

func contractsToDomain(ms []models.ContractModel) []purchase.Contract {
	out := make([]purchase.Contract, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}
