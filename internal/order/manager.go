// Package order owns the mutable per-table cart on a device: the Order
// Aggregate Manager of the system.  All mutations are synchronous and
// local — no network call is ever needed to observe them — and every
// mutation re-derives the aggregate total and the table status before
// returning.  Persistence to the tenant-scoped session store is
// best-effort: a dead store never blocks order taking.
package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/model"
)

// ErrNoOrder is returned when an operation targets a table without an open
// order aggregate.
var ErrNoOrder = errors.New("table has no open order")

// ErrLineNotFound is returned when a line id does not exist in the table's
// aggregate.
var ErrLineNotFound = errors.New("order line not found")

// Manager holds the live carts of one device for one tenant.  It is safe
// for concurrent use; one mutex guards the table map (per-table locking
// buys nothing at the scale of a single terminal).
type Manager struct {
	mu     sync.Mutex
	tenant int64
	tables map[int64]*model.Table
	store  *Store
	log    *zap.Logger
}

// NewManager creates a Manager for the tenant, hydrating previously
// persisted tables from the store.  store may be nil (pure in-memory
// device) and log must be non-nil.
func NewManager(tenantID int64, store *Store, log *zap.Logger) *Manager {
	m := &Manager{tenant: tenantID, tables: map[int64]*model.Table{}, store: store, log: log}
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if saved, err := store.LoadTables(ctx, tenantID); err != nil {
			log.Warn("order: loading persisted tables failed", zap.Error(err))
		} else {
			for i := range saved {
				t := saved[i]
				m.tables[t.ID] = &t
			}
		}
	}
	return m
}

// TenantID returns the tenant this manager is scoped to.
func (m *Manager) TenantID() int64 { return m.tenant }

// AddItem appends a new line for the product to the table's order, creating
// the aggregate on first use and flipping the table to occupied.  Every add
// creates a fresh line even when the product is already in the cart; lines
// are merged by product only when building tickets or bills.
func (m *Manager) AddItem(tableID int64, p model.Product) (model.OrderLineItem, error) {
	if tableID == 0 || p.ID == 0 {
		return model.OrderLineItem{}, errors.New("table and product required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(tableID)
	now := time.Now().UTC()
	if t.Order == nil {
		t.Order = &model.OrderAggregate{TableID: tableID, CreatedAt: now}
	}
	line := model.OrderLineItem{
		LineID:    NewLineID(),
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Quantity:  1,
		AreaID:    p.AreaID,
		Status:    model.LineNew,
		AddedAt:   now,
	}
	t.Order.Items = append(t.Order.Items, line)
	m.afterMutation(t)
	return line, nil
}

// RemoveItem drops the line from the table's order.  When the last line
// goes, the aggregate stays open (empty) but the table returns to
// available, matching the derived-status rule.
func (m *Manager) RemoveItem(tableID int64, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[tableID]
	if !ok || t.Order == nil {
		return ErrNoOrder
	}
	items := t.Order.Items
	for i := range items {
		if items[i].LineID == lineID {
			t.Order.Items = append(items[:i:i], items[i+1:]...)
			m.afterMutation(t)
			return nil
		}
	}
	return ErrLineNotFound
}

// SetQuantity updates a line's quantity.  A quantity of zero or less
// behaves exactly like RemoveItem.
func (m *Manager) SetQuantity(tableID int64, lineID string, qty int) error {
	if qty <= 0 {
		return m.RemoveItem(tableID, lineID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[tableID]
	if !ok || t.Order == nil {
		return ErrNoOrder
	}
	line := t.Order.LineByID(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	line.Quantity = qty
	m.afterMutation(t)
	return nil
}

// AssignWaiter sets the waiter serving the table.
func (m *Manager) AssignWaiter(tableID int64, waiter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(tableID)
	t.AssignedWaiter = waiter
	m.persist(t)
}

// UpdateStatus sets a manual table status (reserved, needs cleaning).  The
// next item mutation re-derives occupied/available on top of it.
func (m *Manager) UpdateStatus(tableID int64, status model.TableStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(tableID)
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	m.persist(t)
}

// Clear discards the table's aggregate and returns the table to available.
// Called on payment completion or an explicit staff clear.
func (m *Manager) Clear(tableID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return
	}
	t.Order = nil
	t.Status = model.TableAvailable
	t.UpdatedAt = time.Now().UTC()
	// A free table needs no snapshot; hydration recreates it on demand.
	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.store.DeleteTable(ctx, m.tenant, tableID); err != nil {
			m.log.Warn("order: deleting table snapshot failed", zap.Int64("table", tableID), zap.Error(err))
		}
	}
}

// Get returns a deep copy of the table so callers can render it without
// holding the manager lock.  The bool reports whether the table is known.
func (m *Manager) Get(tableID int64) (model.Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return model.Table{}, false
	}
	return copyTable(t), true
}

// Tables returns copies of every tracked table ordered by id.
func (m *Manager) Tables() []model.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, copyTable(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update runs fn against the table's aggregate under the manager lock, then
// re-derives total/status and persists.  The split billing engine and the
// reconciler mutate through here so the aggregate invariants hold after
// every write regardless of who wrote.
func (m *Manager) Update(tableID int64, fn func(*model.OrderAggregate) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok || t.Order == nil {
		return ErrNoOrder
	}
	if err := fn(t.Order); err != nil {
		return err
	}
	m.afterMutation(t)
	return nil
}

// Ensure makes the table known to the manager (available, no order) so a
// staging merge can target a table the device has never touched.
func (m *Manager) Ensure(tableID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(tableID)
}

// EnsureOrder opens an empty aggregate on the table when none exists, then
// runs fn like Update.  Used by the staging merge.
func (m *Manager) EnsureOrder(tableID int64, fn func(*model.OrderAggregate) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(tableID)
	if t.Order == nil {
		t.Order = &model.OrderAggregate{TableID: tableID, CreatedAt: time.Now().UTC()}
	}
	if err := fn(t.Order); err != nil {
		return err
	}
	m.afterMutation(t)
	return nil
}

// table returns the tracked table, creating an available placeholder on
// first reference.  Caller holds the lock.
func (m *Manager) table(tableID int64) *model.Table {
	t, ok := m.tables[tableID]
	if !ok {
		t = &model.Table{
			ID:        tableID,
			Number:    int(tableID),
			Status:    model.TableAvailable,
			UpdatedAt: time.Now().UTC(),
		}
		m.tables[tableID] = t
	}
	return t
}

// afterMutation restores the aggregate invariants after any item change:
// total recomputed, revision bumped, table status derived from the line
// count.  Caller holds the lock.
func (m *Manager) afterMutation(t *model.Table) {
	now := time.Now().UTC()
	if t.Order != nil {
		t.Order.RecomputeTotal()
		t.Order.Revision++
		t.Order.UpdatedAt = now
		if len(t.Order.Items) > 0 {
			t.Status = model.TableOccupied
		} else {
			t.Status = model.TableAvailable
		}
	}
	t.UpdatedAt = now
	m.persist(t)
}

// persist writes the table snapshot to the session store.  Failures are
// logged and dropped; the in-memory state remains the device's truth.
func (m *Manager) persist(t *model.Table) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.store.SaveTable(ctx, m.tenant, copyTable(t)); err != nil {
		m.log.Warn("order: persisting table failed", zap.Int64("table", t.ID), zap.Error(err))
	}
}

func copyTable(t *model.Table) model.Table {
	out := *t
	if t.Order != nil {
		o := *t.Order
		o.Items = append([]model.OrderLineItem(nil), t.Order.Items...)
		if t.Order.Bills != nil {
			o.Bills = make([]model.Bill, len(t.Order.Bills))
			for i := range t.Order.Bills {
				b := t.Order.Bills[i]
				b.Items = append([]model.BillLineItem(nil), b.Items...)
				o.Bills[i] = b
			}
		}
		out.Order = &o
	}
	return out
}
