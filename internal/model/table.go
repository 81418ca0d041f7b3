package model

import "time"

// TableStatus enumerates the lifecycle states of a restaurant table.  The
// status is derived, never set independently of the order: a table becomes
// OCCUPIED when its order aggregate holds at least one line item and returns
// to AVAILABLE when the order is cleared.
type TableStatus string

const (
	TableAvailable     TableStatus = "available"
	TableOccupied      TableStatus = "occupied"
	TableReserved      TableStatus = "reserved"
	TableNeedsCleaning TableStatus = "needs_cleaning"
)

// Table is one physical (or virtual) table of the restaurant as tracked on a
// device.  The live cart lives in Order; a nil Order means no open order.
//
// Fields:
//
//	ID             – table identifier, shared across devices and the server.
//	Number         – human-facing table number.
//	Name           – display name ("Mesa 5", "Terrace 2").
//	Status         – derived table status, see TableStatus.
//	AssignedWaiter – waiter currently serving the table, may be empty.
//	Order          – the live order aggregate, nil when the table is free.
//	UpdatedAt      – last local mutation timestamp.
type Table struct {
	ID             int64           `json:"id"`
	Number         int             `json:"number"`
	Name           string          `json:"name"`
	Status         TableStatus     `json:"status"`
	AssignedWaiter string          `json:"assigned_waiter,omitempty"`
	Order          *OrderAggregate `json:"order,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
