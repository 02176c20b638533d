// Package attachment registers attachment metadata. File bytes live in object
// storage and never pass through this service.
package attachment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	appevent "github.com/yunmao/backend/internal/application/event"
	"github.com/yunmao/backend/internal/domain/attachment"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Attachment errors
var (
	ErrAttachmentNotFound = shared.NewDomainError("ATTACHMENT_NOT_FOUND", "Attachment not found")
	ErrStorageKeyInUse    = shared.NewDomainError("STORAGE_KEY_IN_USE", "An attachment with this storage key already exists")
	ErrObjectNotInStorage = shared.NewDomainError("OBJECT_NOT_FOUND", "No object exists under this storage key")
	ErrStorageUnavailable = shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage could not be reached")
)

// ObjectStorage is the read side of object storage needed to register metadata.
// Implemented by the S3 adapter and the in-memory store in infrastructure/storage.
type ObjectStorage interface {
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// AttachmentService handles attachment metadata
type AttachmentService struct {
	repo      attachment.Repository
	storage   ObjectStorage
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewAttachmentService creates a new AttachmentService.
// storage may be nil, in which case the object existence check is skipped.
func NewAttachmentService(
	repo attachment.Repository,
	storage ObjectStorage,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

// Register records metadata for an object that is already in storage
func (s *AttachmentService) Register(
	ctx context.Context,
	tenantID uuid.UUID,
	req RegisterAttachmentRequest,
	createdBy *uuid.UUID,
) (*AttachmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attachment", "register",
		telemetry.SpanAttrTenantID, tenantID.String())
	defer span.End()

	key := strings.TrimSpace(req.StorageKey)
	if err := attachment.ValidateStorageKey(key); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByStorageKey(ctx, tenantID, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		return nil, ErrStorageKeyInUse
	}

	if s.storage != nil {
		found, err := s.storage.ObjectExists(ctx, key)
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Warn("Object storage check failed", zap.String("storage_key", key), zap.Error(err))
			return nil, ErrStorageUnavailable
		}
		if !found {
			return nil, ErrObjectNotInStorage
		}
	}

	a, err := attachment.NewAttachment(tenantID, strings.TrimSpace(req.FileName), req.FileSize, req.ContentType, key)
	if err != nil {
		return nil, err
	}
	a.Description = strings.TrimSpace(req.Description)
	if createdBy != nil {
		a.SetCreatedBy(*createdBy)
	}

	if err := s.repo.Save(ctx, a); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAttachmentID, a.ID.String())
	appevent.PublishPending(ctx, s.publisher, s.logger, a)

	s.logger.Info("Attachment registered",
		zap.String("attachment_id", a.ID.String()),
		zap.String("storage_key", key),
	)
	resp := ToAttachmentResponse(a)
	return &resp, nil
}

// GetByID returns attachment metadata
func (s *AttachmentService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*AttachmentResponse, error) {
	a, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	resp := ToAttachmentResponse(a)
	return &resp, nil
}

// EnsureExist checks that every ID names an attachment of the tenant.
// Duplicate IDs are allowed.
func (s *AttachmentService) EnsureExist(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	return EnsureAttachmentsExist(ctx, s.repo, tenantID, ids)
}

// EnsureAttachmentsExist is the lookup shared with invoice line writes
func EnsureAttachmentsExist(ctx context.Context, repo attachment.Repository, tenantID uuid.UUID, ids []uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return shared.NewDomainError("INVALID_ATTACHMENT_ID", "Attachment ID cannot be empty")
		}
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}

	lookup := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		lookup = append(lookup, id)
	}
	found, err := repo.FindByIDs(ctx, tenantID, lookup)
	if err != nil {
		return err
	}
	if len(found) != len(unique) {
		return ErrAttachmentNotFound
	}
	return nil
}
