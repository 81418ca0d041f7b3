package model

import "time"

// StagingRecord is one item submitted by a non-primary device (typically the
// table's self-service QR client) that has not yet been merged into the
// owning device's order aggregate.  Records are consumed – deleted – by the
// first successful reconciliation that merges them.
//
// Fields:
//
//	ID          – staging_orders.id.
//	TenantID    – staging_orders.business_id.
//	TableID     – staging_orders.table_id.
//	ProductID   – staging_orders.product_id.
//	Name        – staging_orders.name (denormalized product name).
//	Quantity    – staging_orders.quantity.
//	UnitPrice   – staging_orders.unit_price.
//	SubmittedAt – staging_orders.created_at.
type StagingRecord struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	TableID     int64     `json:"table_id"`
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	SubmittedAt time.Time `json:"submitted_at"`
}
