// Package reconcile keeps a device's local aggregates converged with the
// server-held truth: the ticket tracker and the staging queue.  The engine
// polls on a fixed interval and can be triggered on demand (view activation,
// an order.arrived event).  Every merge is fail-soft — a fetch failure
// leaves local state untouched and the next tick retries — so the device
// never blocks on the network.
//
// Known limitation, inherited from the merge key: staged items are matched
// to local lines by product, not by line.  A device that already holds any
// line for a product silently swallows a second staged quantity of that
// same product instead of appending a new line.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
)

// API is the slice of the server client the engine needs.
type API interface {
	Tickets(ctx context.Context, tableID int64, area string) ([]model.KitchenTicket, error)
	Staging(ctx context.Context, tableID int64) ([]model.StagingRecord, error)
	ClearStaging(ctx context.Context, tableID int64) error
}

// Engine merges server truth into one device's order manager.
type Engine struct {
	mgr      *order.Manager
	api      API
	interval time.Duration
	log      *zap.Logger
	trigger  chan struct{}
}

// NewEngine builds an Engine polling at the given interval.
func NewEngine(mgr *order.Manager, api API, interval time.Duration, log *zap.Logger) *Engine {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Engine{
		mgr:      mgr,
		api:      api,
		interval: interval,
		log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate reconciliation pass.  Safe to call from any
// goroutine; coalesces while a pass is already queued.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.  A device that stops observing its
// tables simply cancels the context; there is no other stop signal.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunOnce(ctx)
		case <-e.trigger:
			e.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full pass: the staging merge first (it can surface
// tables the device has never seen), then the ticket status merge over
// every tracked table.
func (e *Engine) RunOnce(ctx context.Context) {
	e.mergeStaging(ctx)
	e.mergeTicketStatus(ctx)
}

// mergeStaging pulls the tenant's staging queue and folds each record into
// the owning table's aggregate.  Records whose product is already present
// on the device are skipped (see the package note).  Consumed records are
// deleted per table; if the delete fails they are left for the next cycle —
// re-applying is harmless because the merge key makes the append idempotent.
func (e *Engine) mergeStaging(ctx context.Context) {
	recs, err := e.api.Staging(ctx, 0)
	if err != nil {
		e.log.Warn("reconcile: staging fetch failed", zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}

	byTable := map[int64][]model.StagingRecord{}
	for _, rec := range recs {
		byTable[rec.TableID] = append(byTable[rec.TableID], rec)
	}

	for tableID, tableRecs := range byTable {
		merged := 0
		err := e.mgr.EnsureOrder(tableID, func(o *model.OrderAggregate) error {
			for _, rec := range tableRecs {
				if o.HasProduct(rec.ProductID) {
					continue
				}
				o.Items = append(o.Items, model.OrderLineItem{
					LineID:    order.NewLineID(),
					ProductID: rec.ProductID,
					Name:      rec.Name,
					UnitPrice: rec.UnitPrice,
					Quantity:  rec.Quantity,
					Status:    model.LineNew,
					AddedAt:   rec.SubmittedAt,
				})
				merged++
			}
			return nil
		})
		if err != nil {
			e.log.Warn("reconcile: staging merge failed", zap.Int64("table", tableID), zap.Error(err))
			continue
		}
		if merged > 0 {
			e.log.Info("reconcile: merged staged items",
				zap.Int64("table", tableID), zap.Int("items", merged))
		}
		if err := e.api.ClearStaging(ctx, tableID); err != nil {
			// The rows stay server-side and re-apply next tick as no-ops.
			e.log.Warn("reconcile: clearing staging failed", zap.Int64("table", tableID), zap.Error(err))
		}
	}
}

// mergeTicketStatus annotates local lines whose product appears in any open
// ticket as dispatched.  The merge only updates the display attribute: it
// never adds or removes lines, and it never un-marks a line (a ticket whose
// items all completed drops out of the query, but the line did reach the
// kitchen).
func (e *Engine) mergeTicketStatus(ctx context.Context) {
	for _, t := range e.mgr.Tables() {
		if t.Order == nil || len(t.Order.Items) == 0 {
			continue
		}
		tickets, err := e.api.Tickets(ctx, t.ID, "")
		if err != nil {
			e.log.Warn("reconcile: ticket fetch failed", zap.Int64("table", t.ID), zap.Error(err))
			continue
		}
		inKitchen := map[int64]struct{}{}
		for _, tk := range tickets {
			for _, it := range tk.Items {
				inKitchen[it.ProductID] = struct{}{}
			}
		}
		if len(inKitchen) == 0 {
			continue
		}
		_ = e.mgr.Update(t.ID, func(o *model.OrderAggregate) error {
			for i := range o.Items {
				if _, ok := inKitchen[o.Items[i].ProductID]; ok {
					o.Items[i].Status = model.LineDispatched
				}
			}
			return nil
		})
	}
}
