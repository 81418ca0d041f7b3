// Package events defines the typed messages exchanged over the message
// broker.  The set of kinds is closed: devices and displays switch on Kind
// instead of matching loosely-typed notification names.
package events

import "time"

// Kind identifies one of the domain events the system can emit.
type Kind string

const (
	// OrderArrived is published when a self-service device submits items
	// into the staging queue.  Staff terminals use it as a hint to
	// reconcile early instead of waiting for the next poll.
	OrderArrived Kind = "order.arrived"
	// TicketDispatched is published after the router persists a new kitchen
	// ticket.  Area displays tail it to refresh without polling.
	TicketDispatched Kind = "ticket.dispatched"
	// TableCleared is published once a table is fully paid, its tickets
	// purged and its aggregate cleared.
	TableCleared Kind = "table.cleared"
)

// ValidKind reports whether k belongs to the closed event set.
func ValidKind(k Kind) bool {
	switch k {
	case OrderArrived, TicketDispatched, TableCleared:
		return true
	}
	return false
}

// Envelope is the wire form of every event.  Payload carries kind-specific
// detail (item summaries, ticket id) and is kept small: consumers that need
// full state query the API instead of trusting the event body.
type Envelope struct {
	Kind       Kind      `json:"kind"`
	TenantID   int64     `json:"tenant_id"`
	TableID    int64     `json:"table_id"`
	Area       string    `json:"area,omitempty"`
	TicketID   int64     `json:"ticket_id,omitempty"`
	ItemCount  int       `json:"item_count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
