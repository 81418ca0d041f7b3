// Package split partitions a finalized order aggregate into per-person
// bills.  All math runs on the aggregate through the order manager so the
// bill invariants (subtotal, fixed-rate tax, last-assignment-wins per
// product) hold under the same lock as every other cart mutation.
package split

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
)

// DefaultTaxRate is the fixed rate applied to split bills.
const DefaultTaxRate = 0.10

// ErrNotSplit is returned when a bill operation runs on a table whose order
// is not in split mode.
var ErrNotSplit = errors.New("order is not in split mode")

// ErrPersonNotFound is returned when a bill id does not exist on the order.
var ErrPersonNotFound = errors.New("person not found on this order")

// Engine performs split-billing operations on top of an order manager.
type Engine struct {
	mgr     *order.Manager
	taxRate float64
}

// NewEngine returns an Engine with the given tax rate; zero or negative
// falls back to DefaultTaxRate.
func NewEngine(mgr *order.Manager, taxRate float64) *Engine {
	if taxRate <= 0 {
		taxRate = DefaultTaxRate
	}
	return &Engine{mgr: mgr, taxRate: taxRate}
}

// EnableSplit freezes the current aggregate for per-person checkout: split
// mode on, empty bill list.  Re-enabling resets any bills from an earlier
// attempt.
func (e *Engine) EnableSplit(tableID int64) error {
	return e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		o.SplitMode = true
		o.Bills = []model.Bill{}
		return nil
	})
}

// Cancel leaves split mode and discards all bills; the order itself is
// untouched and remains payable directly.
func (e *Engine) Cancel(tableID int64) error {
	return e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		o.SplitMode = false
		o.Bills = nil
		return nil
	})
}

// AddPerson appends an empty bill for the named person and returns it.
func (e *Engine) AddPerson(tableID int64, name string) (model.Bill, error) {
	bill := model.Bill{
		PersonID:   newPersonID(),
		PersonName: name,
		Items:      []model.BillLineItem{},
		Status:     model.BillPending,
	}
	err := e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		if !o.SplitMode {
			return ErrNotSplit
		}
		o.Bills = append(o.Bills, bill)
		return nil
	})
	if err != nil {
		return model.Bill{}, err
	}
	return bill, nil
}

// RemovePerson drops a person's bill; their assigned items simply become
// unassigned again.
func (e *Engine) RemovePerson(tableID int64, personID string) error {
	return e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		if !o.SplitMode {
			return ErrNotSplit
		}
		for i := range o.Bills {
			if o.Bills[i].PersonID == personID {
				o.Bills = append(o.Bills[:i:i], o.Bills[i+1:]...)
				return nil
			}
		}
		return ErrPersonNotFound
	})
}

// AssignItem gives qty units of the line's product to one person.  The
// assignment is last-wins in both directions: the target bill's previous
// entry for the product is replaced, and every other bill holding the
// product loses it.  Only the affected bills are recomputed.
func (e *Engine) AssignItem(tableID int64, lineID, personID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	return e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		if !o.SplitMode {
			return ErrNotSplit
		}
		line := o.LineByID(lineID)
		if line == nil {
			return order.ErrLineNotFound
		}

		target := -1
		for i := range o.Bills {
			if o.Bills[i].PersonID == personID {
				target = i
				break
			}
		}
		if target < 0 {
			return ErrPersonNotFound
		}

		for i := range o.Bills {
			if i == target {
				upsertItem(&o.Bills[i], model.BillLineItem{
					ProductID:  line.ProductID,
					Name:       line.Name,
					UnitPrice:  line.UnitPrice,
					Quantity:   float64(qty),
					AssignedTo: []string{personID},
					Shared:     false,
				})
			} else {
				removeProduct(&o.Bills[i], line.ProductID)
			}
			e.recompute(&o.Bills[i])
		}
		return nil
	})
}

// ShareItem splits qty units of the line's product evenly across the named
// persons: each bill receives one shared entry holding qty/n units at the
// full unit price, so the per-person quantities sum back to qty and the
// shared amounts sum back to the undivided line amount.  Bills not named
// keep whatever they held.
func (e *Engine) ShareItem(tableID int64, lineID string, personIDs []string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	if len(personIDs) == 0 {
		return errors.New("at least one person required")
	}
	return e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		if !o.SplitMode {
			return ErrNotSplit
		}
		line := o.LineByID(lineID)
		if line == nil {
			return order.ErrLineNotFound
		}

		// Dedupe before dividing: naming the same person twice must not
		// shrink everyone's share or fail the person lookup below.
		named := map[string]struct{}{}
		unique := make([]string, 0, len(personIDs))
		for _, id := range personIDs {
			if _, ok := named[id]; ok {
				continue
			}
			named[id] = struct{}{}
			unique = append(unique, id)
		}
		share := float64(qty) / float64(len(unique))

		found := 0
		for i := range o.Bills {
			if _, ok := named[o.Bills[i].PersonID]; !ok {
				continue
			}
			found++
			upsertItem(&o.Bills[i], model.BillLineItem{
				ProductID:  line.ProductID,
				Name:       line.Name,
				UnitPrice:  line.UnitPrice,
				Quantity:   share,
				AssignedTo: append([]string(nil), unique...),
				Shared:     true,
			})
			e.recompute(&o.Bills[i])
		}
		if found != len(unique) {
			return ErrPersonNotFound
		}
		return nil
	})
}

// BillFor returns a copy of one person's bill.
func (e *Engine) BillFor(tableID int64, personID string) (model.Bill, error) {
	t, ok := e.mgr.Get(tableID)
	if !ok || t.Order == nil {
		return model.Bill{}, order.ErrNoOrder
	}
	if !t.Order.SplitMode {
		return model.Bill{}, ErrNotSplit
	}
	for _, b := range t.Order.Bills {
		if b.PersonID == personID {
			return b, nil
		}
	}
	return model.Bill{}, ErrPersonNotFound
}

// Finalize returns the bill list for external payment processing.  It does
// not clear the order: the caller tracks per-bill payment completion (see
// MarkPaid) and only clears the aggregate and purges tickets once every
// bill is settled.
func (e *Engine) Finalize(tableID int64) ([]model.Bill, error) {
	t, ok := e.mgr.Get(tableID)
	if !ok || t.Order == nil {
		return nil, order.ErrNoOrder
	}
	if !t.Order.SplitMode {
		return nil, ErrNotSplit
	}
	return t.Order.Bills, nil
}

// MarkPaid records that one person's bill is settled and reports whether
// every bill on the table is now paid.
func (e *Engine) MarkPaid(tableID int64, personID string) (allPaid bool, err error) {
	err = e.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		if !o.SplitMode {
			return ErrNotSplit
		}
		found := false
		allPaid = true
		for i := range o.Bills {
			if o.Bills[i].PersonID == personID {
				o.Bills[i].Status = model.BillPaid
				found = true
			}
			if o.Bills[i].Status != model.BillPaid {
				allPaid = false
			}
		}
		if !found {
			return ErrPersonNotFound
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return allPaid, nil
}

// recompute re-derives one bill's money fields.
func (e *Engine) recompute(b *model.Bill) {
	var subtotal float64
	for _, it := range b.Items {
		subtotal += it.UnitPrice * it.Quantity
	}
	b.Subtotal = subtotal
	b.Tax = subtotal * e.taxRate
	b.Total = b.Subtotal + b.Tax
}

// upsertItem replaces the bill's entry for the item's product, or appends.
func upsertItem(b *model.Bill, item model.BillLineItem) {
	for i := range b.Items {
		if b.Items[i].ProductID == item.ProductID {
			b.Items[i] = item
			return
		}
	}
	b.Items = append(b.Items, item)
}

// removeProduct drops the bill's entry for the product if present.
func removeProduct(b *model.Bill, productID int64) {
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			b.Items = append(b.Items[:i:i], b.Items[i+1:]...)
			return
		}
	}
}

// newPersonID generates an opaque bill identifier.
func newPersonID() string {
	var bs [4]byte
	_, _ = rand.Read(bs[:])
	return fmt.Sprintf("person-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(bs[:]))
}
