package model

// BillStatus tracks whether a per-person bill has been settled.
type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
)

// BillLineItem is one product's share inside a person's bill.
//
// A bill holds at most one BillLineItem per product: assigning the same
// product again replaces the previous entry (last-assignment-wins).  For a
// shared item, Quantity already carries the per-person share (quantity/n)
// while UnitPrice stays the full price, so a bill's subtotal is always the
// plain sum of UnitPrice×Quantity over its items and the shares of one item
// sum back to its undivided amount.
//
// Fields:
//
//	ProductID  – catalog product reference.
//	Name       – product name for receipt display.
//	UnitPrice  – full unit price.
//	Quantity   – per-person quantity (may be fractional for shared items).
//	AssignedTo – person ids holding a share of this item.
//	Shared     – true when the item was split across several persons.
type BillLineItem struct {
	ProductID  int64    `json:"product_id"`
	Name       string   `json:"name"`
	UnitPrice  float64  `json:"unit_price"`
	Quantity   float64  `json:"quantity"`
	AssignedTo []string `json:"assigned_to"`
	Shared     bool     `json:"shared"`
}

// Bill is one person's share of a split order.  Subtotal, Tax and Total are
// derived and recomputed after every assignment; Tax is the fixed 10% rate.
//
// Fields:
//
//	PersonID   – opaque id generated when the person was added.
//	PersonName – display name entered at the table.
//	Items      – this person's bill lines, one per product.
//	Subtotal   – Σ(UnitPrice × Quantity) over Items.
//	Tax        – Subtotal × tax rate.
//	Total      – Subtotal + Tax.
//	Status     – pending until the person's payment is recorded.
type Bill struct {
	PersonID   string         `json:"person_id"`
	PersonName string         `json:"person_name"`
	Items      []BillLineItem `json:"items"`
	Subtotal   float64        `json:"subtotal"`
	Tax        float64        `json:"tax"`
	Total      float64        `json:"total"`
	Status     BillStatus     `json:"status"`
}
