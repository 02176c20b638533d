package attachment

import (
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/attachment"
)

// RegisterAttachmentRequest registers metadata for a file already in object storage
type RegisterAttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	FileSize    int64  `json:"file_size" binding:"required,min=1"`
	ContentType string `json:"content_type" binding:"required,max=100"`
	StorageKey  string `json:"storage_key" binding:"required,max=500"`
	Description string `json:"description" binding:"max=500"`
}

// AttachmentResponse is the attachment metadata returned to clients
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	ContentType string     `json:"content_type"`
	StorageKey  string     `json:"storage_key"`
	Description string     `json:"description,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToAttachmentResponse converts a domain attachment
func ToAttachmentResponse(a *attachment.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		TenantID:    a.TenantID,
		FileName:    a.FileName,
		FileSize:    a.FileSize,
		ContentType: a.ContentType,
		StorageKey:  a.StorageKey,
		Description: a.Description,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
