package model

import "time"

// Payment records one settled amount for a table: either the whole order on
// direct checkout or one person's bill on split checkout.  The payment
// gateway itself is external; the core only stores the resulting
// transaction reference, method and amount.
//
// Fields:
//
//	ID             – payments.id.
//	TenantID       – payments.business_id.
//	TableID        – payments.table_id.
//	PersonName     – payments.person_name, empty for direct checkout.
//	TransactionRef – payments.transaction_ref from the gateway.
//	Method         – payments.method ("cash", "card", ...).
//	Amount         – payments.amount.
//	CreatedAt      – payments.created_at.
type Payment struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"-"`
	TableID        int64     `json:"table_id"`
	PersonName     string    `json:"person_name,omitempty"`
	TransactionRef string    `json:"transaction_ref"`
	Method         string    `json:"method"`
	Amount         float64   `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}
