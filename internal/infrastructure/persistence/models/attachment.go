package models

import (
	"github.com/yunmao/backend/internal/domain/attachment"
)

// AttachmentModel is the persistence model for attachment metadata.
// Only metadata lives here; file bytes stay in object storage.
type AttachmentModel struct {
	TenantAggregateModel
	FileName    string `gorm:"column:file_name;type:varchar(255);not null"`
	FileSize    int64  `gorm:"column:file_size;type:bigint;not null"`
	ContentType string `gorm:"column:content_type;type:varchar(100);not null"`
	StorageKey  string `gorm:"column:storage_key;type:varchar(500);not null;index"`
	Description string `gorm:"type:varchar(500);not null;default:''"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the persistence model to a domain Attachment
func (m *AttachmentModel) ToDomain() *attachment.Attachment {
	return &attachment.Attachment{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		FileName:            m.FileName,
		FileSize:            m.FileSize,
		ContentType:         m.ContentType,
		StorageKey:          m.StorageKey,
		Description:         m.Description,
	}
}

// FromDomain populates the persistence model from a domain Attachment
func (m *AttachmentModel) FromDomain(a *attachment.Attachment) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.FileName = a.FileName
	m.FileSize = a.FileSize
	m.ContentType = a.ContentType
	m.StorageKey = a.StorageKey
	m.Description = a.Description
}

// AttachmentModelFromDomain creates a new persistence model from a domain Attachment
func AttachmentModelFromDomain(a *attachment.Attachment) *AttachmentModel {
	m := &AttachmentModel{}
	m.FromDomain(a)
	return m
}

// AllModels lists every model in dependency order for AutoMigrate
func AllModels() []any {
	return []any{
		&ContractModel{},
		&SalesOrderModel{},
		&InvoiceLineModel{},
		&AttachmentModel{},
		&InvoiceLineAttachmentModel{},
	}
}
