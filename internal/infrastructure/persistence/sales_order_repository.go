package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements sale.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

var _ sale.SalesOrderRepository = (*GormSalesOrderRepository)(nil)

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByIDForTenant finds a sales order by ID within a tenant
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.SalesOrder, error) {
	var model models.SalesOrderModel
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

// FindAllForTenant lists sales orders, newest first by default
func (r *GormSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.SalesOrder, error) {
	var orderModels []models.SalesOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).Scopes(tenantScope(tenantID)), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, SalesOrderSortFields, "created_at")).
		Scopes(paginate(filter))

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]sale.SalesOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts sales orders matching the filter
func (r *GormSalesOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).Scopes(tenantScope(tenantID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsForTenant reports whether the order exists in the tenant
func (r *GormSalesOrderRepository) ExistsForTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a sales order. Invoice lines are saved through
// their own repository and are never touched here.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *sale.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	if err := saveVersioned(r.db.WithContext(ctx), model, order.ID, order); err != nil {
		return err
	}
	order.MarkPersisted()
	return nil
}

// DeleteForTenant removes the order, its invoice lines and their attachment
// links in one transaction, children first. The schema's ON DELETE CASCADE
// would do the same; deleting explicitly also yields the line count and keeps
// databases without enforced foreign keys consistent.
func (r *GormSalesOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) (int64, error) {
	var linesDeleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := NewGormSalesOrderRepository(tx).ExistsForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}

		lineIDs := tx.Model(&models.InvoiceLineModel{}).
			Select("id").
			Where("tenant_id = ? AND order_id = ?", tenantID, id)
		if err := tx.Where("invoice_line_id IN (?)", lineIDs).
			Delete(&models.InvoiceLineAttachmentModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("tenant_id = ? AND order_id = ?", tenantID, id).
			Delete(&models.InvoiceLineModel{})
		if result.Error != nil {
			return result.Error
		}
		linesDeleted = result.RowsAffected

		return tx.Scopes(tenantScope(tenantID)).
			Where("id = ?", id).
			Delete(&models.SalesOrderModel{}).Error
	})
	if err != nil {
		return 0, err
	}
	return linesDeleted, nil
}

func (r *GormSalesOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(partner_name) LIKE LOWER(?)", pattern, pattern)
	}
	if partner, ok := filter.Filters["partner_name"].(string); ok && partner != "" {
		query = query.Where("partner_name = ?", partner)
	}
	return query
}
