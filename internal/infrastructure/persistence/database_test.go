package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a postgres-dialect Database over sqlmock
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_WithTenant(t *testing.T) {
	t.Run("adds tenant filter", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "purchase_contracts" WHERE tenant_id = \$1 AND name = \$2`).
			WithArgs(tenantID, "HT-001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var results []models.ContractModel
		require.NoError(t, db.WithTenant(tenantID).Where("name = ?", "HT-001").Find(&results).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil tenant panics", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		assert.Panics(t, func() { db.WithTenant(uuid.Nil) })
	})

	t.Run("does not modify original DB", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		original := db.DB
		_ = db.WithTenant(uuid.New())
		assert.Same(t, original, db.DB)
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.WaitDuration, time.Duration(0))
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "purchase_contracts" WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Where("id = ?", uuid.New()).Delete(&models.ContractModel{}).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_PostgresQueries(t *testing.T) {
	t.Run("find maps missing row to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		tenantID, id := uuid.New(), uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "purchase_contracts" WHERE tenant_id = $1 AND id = $2 ORDER BY "purchase_contracts"."id" LIMIT $3`)).
			WithArgs(tenantID, id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewGormContractRepository(db.DB).FindByIDForTenant(context.Background(), tenantID, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list uses whitelisted ordering", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "purchase_contracts" WHERE tenant_id = \$1 ORDER BY created_at DESC,id DESC LIMIT \$2`).
			WithArgs(tenantID, 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
				AddRow(uuid.New(), tenantID, ""))

		filter := shared.DefaultFilter()
		filter.OrderBy = "name; DROP TABLE purchase_contracts"
		list, err := NewGormContractRepository(db.DB).FindAllForTenant(context.Background(), tenantID, filter)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "", list[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
