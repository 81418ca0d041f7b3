package reconcile

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
)

type fakeAPI struct {
	staging    []model.StagingRecord
	stagingErr error
	tickets    map[int64][]model.KitchenTicket
	ticketsErr error
	clearErr   error
	cleared    []int64
}

func (f *fakeAPI) Tickets(_ context.Context, tableID int64, _ string) ([]model.KitchenTicket, error) {
	if f.ticketsErr != nil {
		return nil, f.ticketsErr
	}
	return f.tickets[tableID], nil
}

func (f *fakeAPI) Staging(context.Context, int64) ([]model.StagingRecord, error) {
	if f.stagingErr != nil {
		return nil, f.stagingErr
	}
	return f.staging, nil
}

func (f *fakeAPI) ClearStaging(_ context.Context, tableID int64) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, tableID)
	f.staging = nil
	return nil
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newTestEngine() (*order.Manager, *fakeAPI, *Engine) {
	mgr := order.NewManager(7, nil, zap.NewNop())
	api := &fakeAPI{tickets: map[int64][]model.KitchenTicket{}}
	return mgr, api, NewEngine(mgr, api, time.Second, zap.NewNop())
}

func TestStagingMergeOpensUnknownTable(t *testing.T) {
	mgr, api, eng := newTestEngine()
	api.staging = []model.StagingRecord{
		{ID: 1, TableID: 9, ProductID: 3, Name: "Cola", Quantity: 2, UnitPrice: 2.50},
	}

	eng.RunOnce(context.Background())

	tab, ok := mgr.Get(9)
	if !ok || tab.Order == nil {
		t.Fatal("merge should open an aggregate on the staged table")
	}
	if len(tab.Order.Items) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(tab.Order.Items))
	}
	line := tab.Order.Items[0]
	if line.ProductID != 3 || line.Quantity != 2 || line.Name != "Cola" {
		t.Errorf("merged line = %+v", line)
	}
	if !closeTo(tab.Order.Total, 5.00) {
		t.Errorf("total = %v, want 5.00", tab.Order.Total)
	}
	if tab.Status != model.TableOccupied {
		t.Errorf("status = %q, want occupied", tab.Status)
	}
	if len(api.cleared) != 1 || api.cleared[0] != 9 {
		t.Errorf("cleared tables = %v, want [9]", api.cleared)
	}
}

func TestStagingMergeSkipsProductsAlreadyHeld(t *testing.T) {
	mgr, api, eng := newTestEngine()
	mgr.AddItem(9, model.Product{ID: 3, Name: "Cola", UnitPrice: 2.50})
	api.staging = []model.StagingRecord{
		{ID: 1, TableID: 9, ProductID: 3, Name: "Cola", Quantity: 5, UnitPrice: 2.50},
		{ID: 2, TableID: 9, ProductID: 4, Name: "Water", Quantity: 1, UnitPrice: 1.50},
	}

	eng.RunOnce(context.Background())

	tab, _ := mgr.Get(9)
	if len(tab.Order.Items) != 2 {
		t.Fatalf("expected 2 lines (Cola kept, Water appended), got %d", len(tab.Order.Items))
	}
	for _, line := range tab.Order.Items {
		if line.ProductID == 3 && line.Quantity != 1 {
			t.Errorf("local Cola quantity changed to %d", line.Quantity)
		}
	}
}

func TestStagingMergeIsIdempotentAcrossCycles(t *testing.T) {
	mgr, api, eng := newTestEngine()
	api.staging = []model.StagingRecord{
		{ID: 1, TableID: 9, ProductID: 4, Name: "Water", Quantity: 1, UnitPrice: 1.50},
	}
	// Clearing fails: the rows stay server-side for the next cycle.
	api.clearErr = errors.New("server down")

	eng.RunOnce(context.Background())
	eng.RunOnce(context.Background())

	tab, _ := mgr.Get(9)
	if len(tab.Order.Items) != 1 {
		t.Fatalf("re-applied staging duplicated the line: %d lines", len(tab.Order.Items))
	}

	// The clear eventually succeeds.
	api.clearErr = nil
	eng.RunOnce(context.Background())
	if len(api.cleared) != 1 {
		t.Fatalf("cleared = %v, want one clear of table 9", api.cleared)
	}
}

func TestStagingFetchFailureLeavesStateUntouched(t *testing.T) {
	mgr, api, eng := newTestEngine()
	mgr.AddItem(9, model.Product{ID: 3, Name: "Cola", UnitPrice: 2.50})
	before, _ := mgr.Get(9)

	api.stagingErr = errors.New("timeout")
	api.ticketsErr = errors.New("timeout")
	eng.RunOnce(context.Background())

	after, _ := mgr.Get(9)
	if after.Order.Revision != before.Order.Revision {
		t.Fatal("a failed fetch must not mutate local state")
	}
}

func TestTicketStatusMergeAnnotatesOnly(t *testing.T) {
	mgr, api, eng := newTestEngine()
	mgr.AddItem(9, model.Product{ID: 3, Name: "Cola", UnitPrice: 2.50})
	mgr.AddItem(9, model.Product{ID: 4, Name: "Water", UnitPrice: 1.50})
	api.tickets[9] = []model.KitchenTicket{
		{ID: 1, TableID: 9, AreaName: "General", Items: []model.TicketLineItem{
			{ID: 10, ProductID: 3, Name: "Cola", Quantity: 1, Status: model.ItemPreparing},
		}},
	}

	eng.RunOnce(context.Background())

	tab, _ := mgr.Get(9)
	if len(tab.Order.Items) != 2 {
		t.Fatalf("status merge changed the line count: %d", len(tab.Order.Items))
	}
	for _, line := range tab.Order.Items {
		switch line.ProductID {
		case 3:
			if line.Status != model.LineDispatched {
				t.Errorf("Cola status = %q, want dispatched", line.Status)
			}
		case 4:
			if line.Status != model.LineNew {
				t.Errorf("Water status = %q, want new", line.Status)
			}
		}
	}
}

func TestTicketStatusNeverUnmarksLines(t *testing.T) {
	mgr, api, eng := newTestEngine()
	mgr.AddItem(9, model.Product{ID: 3, Name: "Cola", UnitPrice: 2.50})
	api.tickets[9] = []model.KitchenTicket{
		{ID: 1, TableID: 9, Items: []model.TicketLineItem{{ID: 10, ProductID: 3}}},
	}
	eng.RunOnce(context.Background())

	// The ticket completes and drops out of the open-ticket query.
	api.tickets[9] = nil
	eng.RunOnce(context.Background())

	tab, _ := mgr.Get(9)
	if tab.Order.Items[0].Status != model.LineDispatched {
		t.Fatalf("line reverted to %q after ticket completion", tab.Order.Items[0].Status)
	}
}

func TestTriggerCoalesces(t *testing.T) {
	_, _, eng := newTestEngine()
	// Must not block however often it is called with no loop draining it.
	for i := 0; i < 10; i++ {
		eng.Trigger()
	}
}
