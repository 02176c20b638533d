package persistence

import (
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// versioned is the optimistic-lock view of a domain aggregate
type versioned interface {
	PersistedVersion() int
	MarkPersisted()
}

// saveVersioned inserts an aggregate that was never stored. A stored one is
// updated only while its row still carries the version it was loaded at;
// otherwise another writer got there first and ErrConcurrencyConflict is returned.
// Callers mark the aggregate persisted once the surrounding transaction commits.
func saveVersioned(tx *gorm.DB, model any, id uuid.UUID, agg versioned) error {
	if agg.PersistedVersion() == 0 {
		return tx.Create(model).Error
	}

	// Select("*") writes zero values too ("" names, 0 tax)
	result := tx.Model(model).
		Where("id = ? AND version = ?", id, agg.PersistedVersion()).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
