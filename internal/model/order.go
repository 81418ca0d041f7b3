package model

import "time"

// LineStatus is a display-only attribute of a local order line.  It never
// drives business logic: a line is either still editable on the device
// (LineNew) or already part of a kitchen ticket (LineDispatched).  The
// authoritative preparation status lives on the ticket items server-side.
type LineStatus string

const (
	LineNew        LineStatus = "new"
	LineDispatched LineStatus = "dispatched"
)

// OrderLineItem is one line of a table's live cart.  Every add produces a
// fresh line with its own LineID even when the product is already present;
// lines are merged by product only when building kitchen tickets or bills.
//
// Fields:
//
//	LineID    – opaque device-generated id, globally unique.
//	ProductID – catalog product reference.
//	Name      – product name captured at add time.
//	UnitPrice – unit price captured at add time.
//	Quantity  – always > 0; setting quantity <= 0 removes the line.
//	AreaID    – preparation area reference, 0 when the product has none.
//	Status    – display status, see LineStatus.
//	AddedAt   – local add timestamp.
type OrderLineItem struct {
	LineID    string     `json:"line_id"`
	ProductID int64      `json:"product_id"`
	Name      string     `json:"name"`
	UnitPrice float64    `json:"unit_price"`
	Quantity  int        `json:"quantity"`
	AreaID    int64      `json:"area_id,omitempty"`
	Status    LineStatus `json:"status"`
	AddedAt   time.Time  `json:"added_at"`
}

// OrderAggregate is the live, editable cart of one table on one device.  It
// is client-maintained: the server never stores it, only tickets and staging
// submissions derived from it.
//
// Invariant: Total == Σ(UnitPrice × Quantity) over Items, recomputed after
// every mutation.
//
// Fields:
//
//	TableID   – table this order belongs to.
//	Items     – ordered list of line items, append order preserved.
//	Total     – derived order total.
//	SplitMode – true once split billing has been enabled at checkout.
//	Bills     – per-person bills, only populated while SplitMode is true.
//	Revision  – bumped on every persisted mutation; lets the session store
//	            detect stale snapshots.
//	CreatedAt – when the first item was added.
//	UpdatedAt – last mutation timestamp.
type OrderAggregate struct {
	TableID   int64           `json:"table_id"`
	Items     []OrderLineItem `json:"items"`
	Total     float64         `json:"total"`
	SplitMode bool            `json:"split_mode"`
	Bills     []Bill          `json:"bills,omitempty"`
	Revision  uint64          `json:"revision"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RecomputeTotal re-derives Total from the current line items.  Callers must
// invoke it after any mutation of Items or a line's quantity.
func (o *OrderAggregate) RecomputeTotal() {
	var sum float64
	for _, it := range o.Items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	o.Total = sum
}

// LineByID returns a pointer to the line with the given id, or nil.
func (o *OrderAggregate) LineByID(lineID string) *OrderLineItem {
	for i := range o.Items {
		if o.Items[i].LineID == lineID {
			return &o.Items[i]
		}
	}
	return nil
}

// HasProduct reports whether any line of the aggregate references the given
// product.  Staging merges key on the product, not the line (see the
// reconcile package for the documented consequence).
func (o *OrderAggregate) HasProduct(productID int64) bool {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return true
		}
	}
	return false
}
