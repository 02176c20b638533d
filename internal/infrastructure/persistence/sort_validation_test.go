package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{"  asc  ", "ASC"},
		{"desc", "DESC"},
		{"INVALID", "DESC"},
		{"ASC; DROP TABLE purchase_contracts;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty returns default", "", "created_at"},
		{"whitelisted", "name", "name"},
		{"trimmed", "  name  ", "name"},
		{"unknown returns default", "secret", "created_at"},
		{"case sensitive", "NAME", "created_at"},
		{"injection", "name; DROP TABLE purchase_contracts;--", "created_at"},
		{"subquery", "id, (SELECT 1)", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, ContractSortFields, "created_at"))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	for name, fields := range map[string]map[string]bool{
		"contracts":     ContractSortFields,
		"sales_orders":  SalesOrderSortFields,
		"invoice_lines": InvoiceLineSortFields,
	} {
		t.Run(name, func(t *testing.T) {
			for _, f := range []string{"id", "created_at", "updated_at"} {
				assert.True(t, fields[f], "%s should allow %s", name, f)
			}
		})
	}
	assert.True(t, InvoiceLineSortFields["invoice_total"])
	assert.True(t, InvoiceLineSortFields["order_id"])
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "name ASC", orderClause("name", "asc", ContractSortFields, "created_at"))
	assert.Equal(t, "created_at DESC", orderClause("password", "sideways", ContractSortFields, "created_at"))
}
