package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create purchase contracts", "create_purchase_contracts"},
		{"Create-Invoice-Lines", "create_invoice_lines"},
		{"ADD_ATTACHMENT_REL", "add_attachment_rel"},
		{"add__rel__table", "add_rel_table"},
		{"Add Index 2", "add_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "create purchase contracts", "Contracts keyed by number")
	require.NoError(t, err)
	assert.Equal(t, uint(1), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_purchase_contracts.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_purchase_contracts.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "create_purchase_contracts")
	assert.Contains(t, string(up), "Contracts keyed by number")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")
}

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_init.up.sql", "000001_init.down.sql",
		"000007_later.up.sql", "000007_later.down.sql",
	)

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
	assert.Equal(t, "000008_next.up.sql", filepath.Base(mf.UpPath))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	require.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000002_b.up.sql", "000002_b.down.sql",
		"000001_a.up.sql", "000001_a.down.sql",
		"000003_c.up.sql",
		"README.md", "notes.up.sql",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000009_dir.up.sql"), 0o755))

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, uint(1), got[0].Version)
	assert.Equal(t, "a", got[0].Name)
	assert.NotEmpty(t, got[0].DownPath)
	assert.Equal(t, uint(3), got[2].Version)
	assert.Empty(t, got[2].DownPath)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

// The shipped migrations must form a gapless sequence of complete pairs.
func TestShippedMigrations(t *testing.T) {
	got, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for i, mf := range got {
		assert.Equal(t, uint(i+1), mf.Version)
		assert.NotEmpty(t, mf.UpPath, "missing up file for %d", mf.Version)
		assert.NotEmpty(t, mf.DownPath, "missing down file for %d", mf.Version)
	}
}
