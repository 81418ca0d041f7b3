// Package checkout composes the end-of-visit flow on a device: record the
// payment(s), purge the table's kitchen tickets server-side, then release
// the local aggregate and dispatch markers.  Both the direct and the
// split path funnel into the same finish step, so a table always ends in
// the same state no matter how it was paid.
package checkout

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/dispatch"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
	"github.com/ordena/comandero/internal/split"
)

// API is the slice of the server client the checkout flow needs.
type API interface {
	RecordPayment(ctx context.Context, tableID int64, personName, transactionRef, method string, amount float64) error
	PurgeTickets(ctx context.Context, tableID int64) (int64, error)
	ClearStaging(ctx context.Context, tableID int64) error
}

// Flow drives checkout for one device.
type Flow struct {
	mgr    *order.Manager
	splits *split.Engine
	router *dispatch.Router
	api    API
	log    *zap.Logger
}

// NewFlow wires the checkout flow over the device engines and server client.
func NewFlow(mgr *order.Manager, splits *split.Engine, router *dispatch.Router, api API, log *zap.Logger) *Flow {
	return &Flow{mgr: mgr, splits: splits, router: router, api: api, log: log}
}

// Direct settles the whole order with a single payment for the aggregate
// total, then finishes the table.  If the payment was recorded but the
// release failed, retry with Finish — calling Direct again would insert a
// second payment row.
func (f *Flow) Direct(ctx context.Context, tableID int64, method, transactionRef string) error {
	t, ok := f.mgr.Get(tableID)
	if !ok || t.Order == nil || len(t.Order.Items) == 0 {
		return order.ErrNoOrder
	}
	amount := roundCents(t.Order.Total)
	if err := f.api.RecordPayment(ctx, tableID, "", transactionRef, method, amount); err != nil {
		return err
	}
	f.log.Info("direct checkout recorded",
		zap.Int64("table", tableID), zap.Float64("amount", amount))
	return f.finish(ctx, tableID)
}

// PayBill records one person's bill payment and marks the bill paid.  When
// every bill on the table is settled, the table is finished.  Returns true
// once the table is fully paid and released.
func (f *Flow) PayBill(ctx context.Context, tableID int64, personID, method, transactionRef string) (bool, error) {
	bill, err := f.splits.BillFor(tableID, personID)
	if err != nil {
		return false, err
	}
	amount := roundCents(bill.Total)
	// A bill already marked paid is a retry after a failed finish: skip the
	// payment insert so the server does not record the revenue twice.
	if bill.Status != model.BillPaid {
		if err := f.api.RecordPayment(ctx, tableID, bill.PersonName, transactionRef, method, amount); err != nil {
			return false, err
		}
	}
	allPaid, err := f.splits.MarkPaid(tableID, personID)
	if err != nil {
		return false, err
	}
	f.log.Info("bill payment recorded",
		zap.Int64("table", tableID),
		zap.String("person", bill.PersonName),
		zap.Float64("amount", amount),
		zap.Bool("all_paid", allPaid))
	if !allPaid {
		return false, nil
	}
	if err := f.finish(ctx, tableID); err != nil {
		return false, err
	}
	return true, nil
}

// Finish releases a table whose payments are already recorded.  It is the
// retry surface when Direct or the last PayBill recorded the payment but
// the release step failed: safe to call repeatedly, since the purge is
// idempotent and the local release is a no-op once the table is gone.
func (f *Flow) Finish(ctx context.Context, tableID int64) error {
	return f.finish(ctx, tableID)
}

// finish purges the table's tickets on the server and releases the local
// state.  The purge must succeed first: it is idempotent, so a failure here
// leaves the table releasable via Finish.  Staging cleanup is best-effort,
// leftover rows re-apply as no-ops.
func (f *Flow) finish(ctx context.Context, tableID int64) error {
	if _, err := f.api.PurgeTickets(ctx, tableID); err != nil {
		return err
	}
	if err := f.api.ClearStaging(ctx, tableID); err != nil {
		f.log.Warn("checkout: clearing staging failed", zap.Int64("table", tableID), zap.Error(err))
	}
	f.router.ClearTable(tableID)
	f.mgr.Clear(tableID)
	f.log.Info("table released", zap.Int64("table", tableID))
	return nil
}

// roundCents rounds a money amount to two decimals for payment recording.
func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
