package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, otherwise defaultField.
// Sort columns are interpolated into ORDER BY, so only whitelisted names may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// SalesOrderSortFields contains allowed sort fields for sales orders
var SalesOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"partner_name": true,
	"order_date":   true,
}

// InvoiceLineSortFields contains allowed sort fields for invoice lines
var InvoiceLineSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"order_id":      true,
	"name":          true,
	"date":          true,
	"invoice_type":  true,
	"expense_type":  true,
	"invoice_value": true,
	"invoice_tax":   true,
	"invoice_total": true,
}

// orderClause builds a safe ORDER BY clause from a filter
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}
