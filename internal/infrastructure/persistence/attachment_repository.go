package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/attachment"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements attachment.Repository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

var _ attachment.Repository = (*GormAttachmentRepository)(nil)

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByIDForTenant finds an attachment by ID within a tenant
func (r *GormAttachmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*attachment.Attachment, error) {
	var model models.AttachmentModel
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

// FindByIDs finds the attachments among ids that exist in the tenant
func (r *GormAttachmentRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]attachment.Attachment, error) {
	if len(ids) == 0 {
		return []attachment.Attachment{}, nil
	}

	var attachmentModels []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&attachmentModels).Error; err != nil {
		return nil, err
	}

	out := make([]attachment.Attachment, len(attachmentModels))
	for i := range attachmentModels {
		out[i] = *attachmentModels[i].ToDomain()
	}
	return out, nil
}

// ExistsByStorageKey reports whether metadata for the key is already registered
func (r *GormAttachmentRepository) ExistsByStorageKey(ctx context.Context, tenantID uuid.UUID, storageKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AttachmentModel{}).
		Scopes(tenantScope(tenantID)).
		Where("storage_key = ?", storageKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates attachment metadata
func (r *GormAttachmentRepository) Save(ctx context.Context, a *attachment.Attachment) error {
	if err := saveVersioned(r.db.WithContext(ctx), models.AttachmentModelFromDomain(a), a.ID, a); err != nil {
		return err
	}
	a.MarkPersisted()
	return nil
}
