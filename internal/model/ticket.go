package model

import "time"

// ItemStatus enumerates the preparation states of a dispatched ticket item.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemCompleted ItemStatus = "completed"
)

// ValidItemStatus reports whether s is one of the known preparation states.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemPending, ItemPreparing, ItemReady, ItemCompleted:
		return true
	}
	return false
}

// TicketLineItem is one merged product line inside a kitchen ticket.  Status
// is tracked per ticket line instance (by ID): two tickets, or two lines
// within one ticket, advance independently.
//
// Fields:
//
//	ID        – ticket_items.id, the status-tracking key.
//	ProductID – ticket_items.product_id.
//	Name      – ticket_items.name (denormalized for kitchen displays).
//	Quantity  – ticket_items.quantity (summed over dispatched cart lines).
//	UnitPrice – ticket_items.unit_price.
//	Status    – ticket_items.status.
type TicketLineItem struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	UnitPrice float64    `json:"unit_price"`
	Status    ItemStatus `json:"status"`
}

// KitchenTicket is a dispatched subset of one table's order routed to a
// single preparation area (a "comanda").  Tickets are immutable once
// created except for per-item status transitions; they are purged wholesale
// for a table when the order is paid.
//
// Fields:
//
//	ID        – tickets.id.
//	TableID   – tickets.table_id.
//	AreaName  – tickets.area_name, already normalized ("General" fallback).
//	Items     – merged product lines of this ticket.
//	CreatedAt – tickets.created_at.
type KitchenTicket struct {
	ID        int64            `json:"id"`
	TableID   int64            `json:"table_id"`
	AreaName  string           `json:"area"`
	Items     []TicketLineItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}
