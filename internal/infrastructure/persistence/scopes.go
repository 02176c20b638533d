package persistence

import (
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// tenantScope limits a query to one tenant
func tenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// paginate applies the filter's page window. A non-positive page size means no limit.
func paginate(filter shared.Filter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.PageSize <= 0 {
			return db
		}
		return db.Offset(filter.Offset()).Limit(filter.PageSize)
	}
}

// likePattern wraps a search term for a case-insensitive LIKE
func likePattern(search string) string {
	return "%" + search + "%"
}
