// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// entity with ToDomain and FromDomain.
//
// Tables:
//   - purchase_contracts
//   - sales_orders
//   - sale_invoice_lines (order_id ON DELETE CASCADE)
//   - attachments
//   - sale_invoice_line_attachment_rel (join table, composite primary key)
package models
