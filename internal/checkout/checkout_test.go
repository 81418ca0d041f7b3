package checkout

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/dispatch"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
	"github.com/ordena/comandero/internal/split"
)

type payment struct {
	person string
	method string
	amount float64
}

type fakeAPI struct {
	payments []payment
	payErr   error
	purgeErr error
	purged   []int64
	cleared  []int64
}

func (f *fakeAPI) RecordPayment(_ context.Context, _ int64, personName, _, method string, amount float64) error {
	if f.payErr != nil {
		return f.payErr
	}
	f.payments = append(f.payments, payment{person: personName, method: method, amount: amount})
	return nil
}

func (f *fakeAPI) PurgeTickets(_ context.Context, tableID int64) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	f.purged = append(f.purged, tableID)
	return 1, nil
}

func (f *fakeAPI) ClearStaging(_ context.Context, tableID int64) error {
	f.cleared = append(f.cleared, tableID)
	return nil
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newFlow() (*order.Manager, *split.Engine, *fakeAPI, *Flow) {
	mgr := order.NewManager(7, nil, zap.NewNop())
	eng := split.NewEngine(mgr, 0.10)
	api := &fakeAPI{}
	rt := dispatch.NewRouter(mgr, nil, nil, zap.NewNop())
	return mgr, eng, api, NewFlow(mgr, eng, rt, api, zap.NewNop())
}

func seat(mgr *order.Manager) {
	mgr.AddItem(5, model.Product{ID: 1, Name: "Burger", UnitPrice: 12.50})
	mgr.AddItem(5, model.Product{ID: 1, Name: "Burger", UnitPrice: 12.50})
	mgr.AddItem(5, model.Product{ID: 2, Name: "Fries", UnitPrice: 5.00})
}

func TestDirectCheckoutReleasesTable(t *testing.T) {
	mgr, _, api, flow := newFlow()
	seat(mgr)

	if err := flow.Direct(context.Background(), 5, "cash", "tx-1"); err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if len(api.payments) != 1 || !closeTo(api.payments[0].amount, 30.00) {
		t.Fatalf("payments = %+v, want one of 30.00", api.payments)
	}
	if len(api.purged) != 1 || api.purged[0] != 5 {
		t.Fatalf("purged = %v, want [5]", api.purged)
	}

	tab, _ := mgr.Get(5)
	if tab.Order != nil || tab.Status != model.TableAvailable {
		t.Fatalf("table not released: %+v", tab)
	}
}

func TestDirectCheckoutRequiresAnOrder(t *testing.T) {
	_, _, api, flow := newFlow()
	if err := flow.Direct(context.Background(), 5, "cash", "tx-1"); err != order.ErrNoOrder {
		t.Fatalf("err = %v, want ErrNoOrder", err)
	}
	if len(api.payments) != 0 {
		t.Fatal("no payment should be recorded without an order")
	}
}

func TestPurgeFailureKeepsTablePayable(t *testing.T) {
	mgr, _, api, flow := newFlow()
	seat(mgr)
	api.purgeErr = errors.New("server down")

	if err := flow.Direct(context.Background(), 5, "cash", "tx-1"); err == nil {
		t.Fatal("expected finish error")
	}
	tab, _ := mgr.Get(5)
	if tab.Order == nil {
		t.Fatal("local aggregate must survive a failed purge")
	}
}

func TestFinishRetriesWithoutSecondPayment(t *testing.T) {
	mgr, _, api, flow := newFlow()
	seat(mgr)
	api.purgeErr = errors.New("server down")

	if err := flow.Direct(context.Background(), 5, "cash", "tx-1"); err == nil {
		t.Fatal("expected finish error")
	}
	if len(api.payments) != 1 {
		t.Fatalf("payments = %+v, want 1", api.payments)
	}

	// The payment is on the books; the retry surface is Finish, which must
	// release the table without touching payments again.
	api.purgeErr = nil
	if err := flow.Finish(context.Background(), 5); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(api.payments) != 1 {
		t.Fatalf("retry recorded a duplicate payment: %+v", api.payments)
	}
	tab, _ := mgr.Get(5)
	if tab.Order != nil || tab.Status != model.TableAvailable {
		t.Fatalf("table not released: %+v", tab)
	}
}

func TestSplitCheckoutFinishesOnLastBill(t *testing.T) {
	mgr, eng, api, flow := newFlow()
	seat(mgr)
	if err := eng.EnableSplit(5); err != nil {
		t.Fatal(err)
	}
	alice, _ := eng.AddPerson(5, "Alice")
	bob, _ := eng.AddPerson(5, "Bob")

	tab, _ := mgr.Get(5)
	var burgerLine, friesLine string
	for _, l := range tab.Order.Items {
		switch l.ProductID {
		case 1:
			burgerLine = l.LineID
		case 2:
			friesLine = l.LineID
		}
	}
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)
	eng.ShareItem(5, friesLine, []string{alice.PersonID, bob.PersonID}, 1)

	done, err := flow.PayBill(context.Background(), 5, alice.PersonID, "card", "tx-1")
	if err != nil {
		t.Fatalf("PayBill(alice): %v", err)
	}
	if done {
		t.Fatal("table must stay open while bob is unpaid")
	}
	if len(api.purged) != 0 {
		t.Fatal("no purge before the last bill")
	}

	done, err = flow.PayBill(context.Background(), 5, bob.PersonID, "cash", "tx-2")
	if err != nil {
		t.Fatalf("PayBill(bob): %v", err)
	}
	if !done {
		t.Fatal("last bill should finish the table")
	}

	if len(api.payments) != 2 {
		t.Fatalf("payments = %+v, want 2", api.payments)
	}
	if !closeTo(api.payments[0].amount, 30.25) || api.payments[0].person != "Alice" {
		t.Errorf("alice payment = %+v, want 30.25", api.payments[0])
	}
	if !closeTo(api.payments[1].amount, 2.75) || api.payments[1].person != "Bob" {
		t.Errorf("bob payment = %+v, want 2.75", api.payments[1])
	}

	tab, _ = mgr.Get(5)
	if tab.Order != nil || tab.Status != model.TableAvailable {
		t.Fatalf("table not released: %+v", tab)
	}
}

func TestPayBillRetrySkipsPaidBill(t *testing.T) {
	mgr, eng, api, flow := newFlow()
	seat(mgr)
	if err := eng.EnableSplit(5); err != nil {
		t.Fatal(err)
	}
	alice, _ := eng.AddPerson(5, "Alice")

	tab, _ := mgr.Get(5)
	for _, l := range tab.Order.Items {
		eng.AssignItem(5, l.LineID, alice.PersonID, l.Quantity)
	}

	// The only bill settles the table, but the release step fails after the
	// payment lands.
	api.purgeErr = errors.New("server down")
	if _, err := flow.PayBill(context.Background(), 5, alice.PersonID, "card", "tx-1"); err == nil {
		t.Fatal("expected finish error")
	}
	if len(api.payments) != 1 {
		t.Fatalf("payments = %+v, want 1", api.payments)
	}

	// Retrying the same bill must not double-record the revenue.
	api.purgeErr = nil
	done, err := flow.PayBill(context.Background(), 5, alice.PersonID, "card", "tx-1")
	if err != nil {
		t.Fatalf("PayBill retry: %v", err)
	}
	if !done {
		t.Fatal("retry should finish the table")
	}
	if len(api.payments) != 1 {
		t.Fatalf("retry recorded a duplicate payment: %+v", api.payments)
	}
}
