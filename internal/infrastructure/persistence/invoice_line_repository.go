package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceLineRepository implements sale.InvoiceLineRepository using GORM.
// Attachment links live in sale_invoice_line_attachment_rel and are loaded
// and written alongside each line.
type GormInvoiceLineRepository struct {
	db *gorm.DB
}

var _ sale.InvoiceLineRepository = (*GormInvoiceLineRepository)(nil)

// NewGormInvoiceLineRepository creates a new GormInvoiceLineRepository
func NewGormInvoiceLineRepository(db *gorm.DB) *GormInvoiceLineRepository {
	return &GormInvoiceLineRepository{db: db}
}

// FindByIDForTenant loads a line with its attachment IDs
func (r *GormInvoiceLineRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sale.InvoiceLine, error) {
	db := r.db.WithContext(ctx)

	var model models.InvoiceLineModel
	if err := db.Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.withAttachments(db, []models.InvoiceLineModel{model})
	if err != nil {
		return nil, err
	}
	return &lines[0], nil
}

// FindByOrder lists the lines of one order in creation order
func (r *GormInvoiceLineRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]sale.InvoiceLine, error) {
	db := r.db.WithContext(ctx)

	var lineModels []models.InvoiceLineModel
	if err := db.Scopes(tenantScope(tenantID)).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}
	return r.withAttachments(db, lineModels)
}

// FindAllForTenant lists lines grouped by order, oldest first within an order
func (r *GormInvoiceLineRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sale.InvoiceLine, error) {
	db := r.db.WithContext(ctx)

	query := r.applyFilter(db.Model(&models.InvoiceLineModel{}).Scopes(tenantScope(tenantID)), filter)
	if filter.OrderBy == "" {
		query = query.Order("order_id ASC").Order("created_at ASC")
	} else {
		query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, InvoiceLineSortFields, "created_at"))
	}

	var lineModels []models.InvoiceLineModel
	if err := query.Scopes(paginate(filter)).Find(&lineModels).Error; err != nil {
		return nil, err
	}
	return r.withAttachments(db, lineModels)
}

// FindByAttachment lists the lines linking the given attachment
func (r *GormInvoiceLineRepository) FindByAttachment(ctx context.Context, tenantID, attachmentID uuid.UUID) ([]sale.InvoiceLine, error) {
	db := r.db.WithContext(ctx)

	linked := db.Model(&models.InvoiceLineAttachmentModel{}).
		Select("invoice_line_id").
		Where("attachment_id = ?", attachmentID)

	var lineModels []models.InvoiceLineModel
	if err := db.Scopes(tenantScope(tenantID)).
		Where("id IN (?)", linked).
		Order("order_id ASC").
		Order("created_at ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}
	return r.withAttachments(db, lineModels)
}

// CountForTenant counts lines matching the filter
func (r *GormInvoiceLineRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceLineModel{}).Scopes(tenantScope(tenantID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByOrder counts the lines of one order
func (r *GormInvoiceLineRepository) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceLineModel{}).
		Scopes(tenantScope(tenantID)).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save writes the line and replaces its attachment links in one transaction.
// A line loaded at an older version than the stored row is rejected with
// shared.ErrConcurrencyConflict.
// The model's BeforeSave hook writes invoice_total = value + tax, so the
// stored total is consistent even for a line mutated outside the domain methods.
func (r *GormInvoiceLineRepository) Save(ctx context.Context, line *sale.InvoiceLine) error {
	model := models.InvoiceLineModelFromDomain(line)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, line.ID, line); err != nil {
			return err
		}
		return syncAttachmentLinks(tx, model.ID, model.AttachmentIDs)
	})
	if err != nil {
		return err
	}
	line.InvoiceTotal = model.InvoiceTotal
	line.MarkPersisted()
	return nil
}

// DeleteForTenant removes the line and its attachment links. Attachments
// themselves are left alone.
func (r *GormInvoiceLineRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(tenantScope(tenantID)).
			Where("id = ?", id).
			Delete(&models.InvoiceLineModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("invoice_line_id = ?", id).
			Delete(&models.InvoiceLineAttachmentModel{}).Error
	})
}

// syncAttachmentLinks makes the rel rows for lineID exactly attachmentIDs
func syncAttachmentLinks(tx *gorm.DB, lineID uuid.UUID, attachmentIDs []uuid.UUID) error {
	stale := tx.Where("invoice_line_id = ?", lineID)
	if len(attachmentIDs) > 0 {
		stale = stale.Where("attachment_id NOT IN ?", attachmentIDs)
	}
	if err := stale.Delete(&models.InvoiceLineAttachmentModel{}).Error; err != nil {
		return err
	}
	if len(attachmentIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.InvoiceLineAttachmentModel, len(attachmentIDs))
	for i, id := range attachmentIDs {
		rows[i] = models.InvoiceLineAttachmentModel{InvoiceLineID: lineID, AttachmentID: id, CreatedAt: now}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// withAttachments converts models and fills AttachmentIDs with one query for all lines
func (r *GormInvoiceLineRepository) withAttachments(db *gorm.DB, lineModels []models.InvoiceLineModel) ([]sale.InvoiceLine, error) {
	lines := make([]sale.InvoiceLine, len(lineModels))
	if len(lineModels) == 0 {
		return lines, nil
	}

	ids := make([]uuid.UUID, len(lineModels))
	for i := range lineModels {
		ids[i] = lineModels[i].ID
	}

	var links []models.InvoiceLineAttachmentModel
	if err := db.Where("invoice_line_id IN ?", ids).
		Order("created_at ASC").
		Order("attachment_id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}

	byLine := make(map[uuid.UUID][]uuid.UUID, len(lineModels))
	for _, l := range links {
		byLine[l.InvoiceLineID] = append(byLine[l.InvoiceLineID], l.AttachmentID)
	}

	for i := range lineModels {
		lineModels[i].AttachmentIDs = byLine[lineModels[i].ID]
		lines[i] = *lineModels[i].ToDomain()
	}
	return lines, nil
}

func (r *GormInvoiceLineRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", likePattern(filter.Search))
	}
	if orderID, ok := filter.Filters["order_id"].(uuid.UUID); ok && orderID != uuid.Nil {
		query = query.Where("order_id = ?", orderID)
	}
	if v, ok := filter.Filters["invoice_type"].(string); ok && v != "" {
		query = query.Where("invoice_type = ?", v)
	}
	if v, ok := filter.Filters["expense_type"].(string); ok && v != "" {
		query = query.Where("expense_type = ?", v)
	}
	return query
}
