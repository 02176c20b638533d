// Package attachment models shared file attachments. An attachment may be
// linked from many records; linking never transfers ownership.
package attachment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
)

// MaxFileSize is the largest file an attachment may describe (100MB)
const MaxFileSize = 100 * 1024 * 1024

// AggregateTypeAttachment is the aggregate type for attachments
const AggregateTypeAttachment = "Attachment"

// EventTypeAttachmentRegistered is published when an attachment is registered
const EventTypeAttachmentRegistered = "AttachmentRegistered"

// Attachment is the metadata record for a stored file
type Attachment struct {
	shared.TenantAggregateRoot
	FileName    string
	FileSize    int64
	ContentType string
	StorageKey  string
	Description string
}

// NewAttachment validates and creates attachment metadata
func NewAttachment(tenantID uuid.UUID, fileName string, fileSize int64, contentType, storageKey string) (*Attachment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID cannot be empty")
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateFileSize(fileSize); err != nil {
		return nil, err
	}
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}
	if err := ValidateStorageKey(storageKey); err != nil {
		return nil, err
	}

	a := &Attachment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FileName:            fileName,
		FileSize:            fileSize,
		ContentType:         contentType,
		StorageKey:          storageKey,
	}
	a.AddDomainEvent(&RegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAttachmentRegistered, AggregateTypeAttachment, a.ID, tenantID),
		AttachmentID:    a.ID,
		StorageKey:      storageKey,
	})
	return a, nil
}

// RegisteredEvent is published when an attachment is registered
type RegisteredEvent struct {
	shared.BaseDomainEvent
	AttachmentID uuid.UUID `json:"attachment_id"`
	StorageKey   string    `json:"storage_key"`
}

// Repository persists attachment metadata
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Attachment, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Attachment, error)
	ExistsByStorageKey(ctx context.Context, tenantID uuid.UUID, storageKey string) (bool, error)
	Save(ctx context.Context, a *Attachment) error
}

func validateFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateFileSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if size > MaxFileSize {
		return shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 100MB")
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" || len(contentType) > 100 {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be 1-100 characters")
	}
	i := strings.Index(contentType, "/")
	if i <= 0 || i == len(contentType)-1 {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be in type/subtype format")
	}
	return nil
}

// ValidateStorageKey checks that a key is a relative, traversal-free object key
func ValidateStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}
