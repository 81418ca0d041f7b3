// Package dispatch implements the kitchen ticket router: it partitions the
// undispatched lines of one table's cart by preparation area and turns each
// non-empty bucket into exactly one kitchen ticket.  Idempotency comes from
// sent markers — one (table, area, line) record per dispatched line — so
// calling Dispatch twice without new items creates nothing the second time.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/client"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
)

// API is the slice of the server client the router needs.  Separated out so
// tests can run against an in-memory fake.
type API interface {
	CreateTicket(ctx context.Context, req client.TicketRequest) (*model.KitchenTicket, error)
	Areas(ctx context.Context) ([]model.Area, error)
}

// Router dispatches cart lines to kitchen areas for one device.
type Router struct {
	mu      sync.Mutex
	mgr     *order.Manager
	api     API
	store   *order.Store
	log     *zap.Logger
	sent    map[string]struct{} // marker set: table|area|line
	lastDir *Directory          // last successfully fetched area directory
}

// NewRouter builds a Router over the device's order manager and server
// client, restoring persisted sent markers so a restart cannot re-dispatch
// lines that already reached the kitchen.  store may be nil.
func NewRouter(mgr *order.Manager, api API, store *order.Store, log *zap.Logger) *Router {
	r := &Router{mgr: mgr, api: api, store: store, log: log, sent: map[string]struct{}{}}
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if markers, err := store.LoadMarkers(ctx, mgr.TenantID()); err != nil {
			log.Warn("dispatch: loading sent markers failed", zap.Error(err))
		} else {
			for _, mk := range markers {
				r.sent[mk] = struct{}{}
			}
		}
	}
	return r
}

func markerKey(tableID int64, area, lineID string) string {
	return fmt.Sprintf("%d|%s|%s", tableID, area, lineID)
}

// Sent reports whether the line has already been dispatched for the area.
func (r *Router) Sent(tableID int64, area, lineID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sent[markerKey(tableID, area, lineID)]
	return ok
}

// ClearTable forgets every marker of the table.  Called when the table is
// cleared after payment so the next seating starts fresh.
func (r *Router) ClearTable(tableID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := fmt.Sprintf("%d|", tableID)
	for k := range r.sent {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(r.sent, k)
		}
	}
	r.persistMarkers()
}

// Dispatch sends every not-yet-dispatched line of the table to its kitchen
// area.  Lines are bucketed by normalized area, previously sent lines are
// filtered out per bucket, empty buckets are skipped (no empty tickets,
// ever), and the remaining lines are merged by product into one ticket per
// area.  Markers are recorded only after the server confirms the ticket, so
// a failed call leaves everything eligible for the retry the user is asked
// to make.  Returns the tickets created; both an empty cart and a fully
// dispatched cart yield a nil slice and no error.
func (r *Router) Dispatch(ctx context.Context, tableID int64) ([]model.KitchenTicket, error) {
	t, ok := r.mgr.Get(tableID)
	if !ok || t.Order == nil || len(t.Order.Items) == 0 {
		return nil, nil
	}
	dir := r.directory(ctx)

	// Bucket lines per area, preserving first-seen area order so tickets
	// print in the order items were taken.
	var areaOrder []string
	buckets := map[string][]model.OrderLineItem{}
	for _, line := range t.Order.Items {
		area := dir.Resolve(line.AreaID)
		if _, seen := buckets[area]; !seen {
			areaOrder = append(areaOrder, area)
		}
		buckets[area] = append(buckets[area], line)
	}

	var created []model.KitchenTicket
	for _, area := range areaOrder {
		pending := r.unsent(tableID, area, buckets[area])
		if len(pending) == 0 {
			continue
		}

		req := client.TicketRequest{TableID: tableID, Area: area, Items: mergeByProduct(pending)}
		ticket, err := r.api.CreateTicket(ctx, req)
		if err != nil {
			// No markers were recorded for this bucket: the whole area
			// remains dispatchable on retry.  Earlier areas already
			// confirmed keep their markers, which is exactly the
			// at-least-once contract.
			return created, fmt.Errorf("dispatch area %q: %w", area, err)
		}

		r.markSent(tableID, area, pending)
		r.markDispatchedLocally(tableID, pending)
		created = append(created, *ticket)
		r.log.Info("dispatched ticket",
			zap.Int64("table", tableID),
			zap.String("area", area),
			zap.Int64("ticket", ticket.ID),
			zap.Int("lines", len(pending)))
	}
	return created, nil
}

// unsent filters out lines already covered by a marker for this area.
func (r *Router) unsent(tableID int64, area string, lines []model.OrderLineItem) []model.OrderLineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrderLineItem
	for _, l := range lines {
		if _, ok := r.sent[markerKey(tableID, area, l.LineID)]; !ok {
			out = append(out, l)
		}
	}
	return out
}

func (r *Router) markSent(tableID int64, area string, lines []model.OrderLineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range lines {
		r.sent[markerKey(tableID, area, l.LineID)] = struct{}{}
	}
	r.persistMarkers()
}

// persistMarkers snapshots the marker set to the session store.  Caller
// holds the mutex.
func (r *Router) persistMarkers() {
	if r.store == nil {
		return
	}
	markers := make([]string, 0, len(r.sent))
	for k := range r.sent {
		markers = append(markers, k)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.SaveMarkers(ctx, r.mgr.TenantID(), markers); err != nil {
		r.log.Warn("dispatch: persisting sent markers failed", zap.Error(err))
	}
}

// markDispatchedLocally flips the display status of the sent lines.
func (r *Router) markDispatchedLocally(tableID int64, lines []model.OrderLineItem) {
	sent := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		sent[l.LineID] = struct{}{}
	}
	_ = r.mgr.Update(tableID, func(o *model.OrderAggregate) error {
		for i := range o.Items {
			if _, ok := sent[o.Items[i].LineID]; ok {
				o.Items[i].Status = model.LineDispatched
			}
		}
		return nil
	})
}

// directory fetches the area list, falling back to the last known directory
// when the server is unreachable.  With no directory at all every line
// resolves to General, which is the documented fallback rather than an
// error.
func (r *Router) directory(ctx context.Context) Directory {
	areas, err := r.api.Areas(ctx)
	if err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.lastDir != nil {
			r.log.Warn("dispatch: area directory fetch failed, using cached", zap.Error(err))
			return *r.lastDir
		}
		r.log.Warn("dispatch: area directory unavailable, routing to General", zap.Error(err))
		return NewDirectory(nil)
	}
	dir := NewDirectory(areas)
	r.mu.Lock()
	r.lastDir = &dir
	r.mu.Unlock()
	return dir
}

// mergeByProduct folds lines of the same product into a single ticket item
// with summed quantity, preserving first-seen order.
func mergeByProduct(lines []model.OrderLineItem) []client.TicketItem {
	var out []client.TicketItem
	idx := map[int64]int{}
	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, client.TicketItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}
