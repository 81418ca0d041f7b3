package split

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/order"
)

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// seatTable opens an order with 2×Burger (12.50) and 1×Fries (5.00) on table
// 5 and returns the manager, the engine and the two line ids.
func seatTable(t *testing.T) (*order.Manager, *Engine, string, string) {
	t.Helper()
	mgr := order.NewManager(7, nil, zap.NewNop())
	eng := NewEngine(mgr, 0.10)

	b1, _ := mgr.AddItem(5, model.Product{ID: 1, Name: "Burger", UnitPrice: 12.50})
	mgr.AddItem(5, model.Product{ID: 1, Name: "Burger", UnitPrice: 12.50})
	f, _ := mgr.AddItem(5, model.Product{ID: 2, Name: "Fries", UnitPrice: 5.00})

	if err := eng.EnableSplit(5); err != nil {
		t.Fatalf("EnableSplit: %v", err)
	}
	return mgr, eng, b1.LineID, f.LineID
}

func TestAssignAndShare(t *testing.T) {
	_, eng, burgerLine, friesLine := seatTable(t)

	alice, err := eng.AddPerson(5, "Alice")
	if err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	bob, _ := eng.AddPerson(5, "Bob")

	if err := eng.AssignItem(5, burgerLine, alice.PersonID, 2); err != nil {
		t.Fatalf("AssignItem: %v", err)
	}
	if err := eng.ShareItem(5, friesLine, []string{alice.PersonID, bob.PersonID}, 1); err != nil {
		t.Fatalf("ShareItem: %v", err)
	}

	a, err := eng.BillFor(5, alice.PersonID)
	if err != nil {
		t.Fatalf("BillFor(alice): %v", err)
	}
	if !closeTo(a.Subtotal, 27.50) || !closeTo(a.Tax, 2.75) || !closeTo(a.Total, 30.25) {
		t.Errorf("alice bill = %.2f/%.2f/%.2f, want 27.50/2.75/30.25", a.Subtotal, a.Tax, a.Total)
	}

	b, _ := eng.BillFor(5, bob.PersonID)
	if !closeTo(b.Subtotal, 2.50) || !closeTo(b.Tax, 0.25) || !closeTo(b.Total, 2.75) {
		t.Errorf("bob bill = %.2f/%.2f/%.2f, want 2.50/0.25/2.75", b.Subtotal, b.Tax, b.Total)
	}

	// All bill totals together equal the order total with tax applied.
	if sum := a.Total + b.Total; !closeTo(sum, 30.00*1.10) {
		t.Errorf("Σ totals = %v, want %v", sum, 30.00*1.10)
	}

	// The shared fries quantities sum back to the undivided quantity.
	var friesQty float64
	for _, bill := range []model.Bill{a, b} {
		for _, it := range bill.Items {
			if it.ProductID == 2 {
				if !it.Shared {
					t.Error("fries entry should be marked shared")
				}
				friesQty += it.Quantity
			}
		}
	}
	if !closeTo(friesQty, 1) {
		t.Errorf("shared quantities sum to %v, want 1", friesQty)
	}
}

func TestShareItemDedupesPeople(t *testing.T) {
	_, eng, _, friesLine := seatTable(t)

	alice, _ := eng.AddPerson(5, "Alice")
	bob, _ := eng.AddPerson(5, "Bob")

	// Naming Alice twice must behave exactly like naming her once: a half
	// share each, not thirds, and no spurious person-lookup failure.
	ids := []string{alice.PersonID, bob.PersonID, alice.PersonID}
	if err := eng.ShareItem(5, friesLine, ids, 1); err != nil {
		t.Fatalf("ShareItem: %v", err)
	}

	a, _ := eng.BillFor(5, alice.PersonID)
	b, _ := eng.BillFor(5, bob.PersonID)
	for _, bill := range []model.Bill{a, b} {
		if len(bill.Items) != 1 || !closeTo(bill.Items[0].Quantity, 0.5) {
			t.Errorf("%s share = %+v, want quantity 0.5", bill.PersonName, bill.Items)
		}
		if got := bill.Items[0].AssignedTo; len(got) != 2 {
			t.Errorf("AssignedTo = %v, want the two unique people", got)
		}
	}
}

func TestReassignmentIsLastWins(t *testing.T) {
	_, eng, burgerLine, _ := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")
	bob, _ := eng.AddPerson(5, "Bob")

	if err := eng.AssignItem(5, burgerLine, alice.PersonID, 2); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := eng.AssignItem(5, burgerLine, bob.PersonID, 2); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	a, _ := eng.BillFor(5, alice.PersonID)
	if len(a.Items) != 0 || !closeTo(a.Total, 0) {
		t.Errorf("alice should hold nothing after reassignment, bill = %+v", a)
	}
	b, _ := eng.BillFor(5, bob.PersonID)
	if len(b.Items) != 1 || !closeTo(b.Subtotal, 25.00) {
		t.Errorf("bob bill = %+v, want 2 burgers at 12.50", b)
	}
}

func TestAssignSameProductReplacesWithinBill(t *testing.T) {
	_, eng, burgerLine, _ := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")

	eng.AssignItem(5, burgerLine, alice.PersonID, 1)
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)

	a, _ := eng.BillFor(5, alice.PersonID)
	if len(a.Items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(a.Items))
	}
	if !closeTo(a.Items[0].Quantity, 2) || !closeTo(a.Subtotal, 25.00) {
		t.Errorf("entry = %+v subtotal = %v, want qty 2 / 25.00", a.Items[0], a.Subtotal)
	}
}

func TestRemovePerson(t *testing.T) {
	_, eng, burgerLine, _ := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)

	if err := eng.RemovePerson(5, alice.PersonID); err != nil {
		t.Fatalf("RemovePerson: %v", err)
	}
	if _, err := eng.BillFor(5, alice.PersonID); err != ErrPersonNotFound {
		t.Errorf("BillFor after removal: err = %v, want ErrPersonNotFound", err)
	}
	if err := eng.RemovePerson(5, alice.PersonID); err != ErrPersonNotFound {
		t.Errorf("second RemovePerson: err = %v, want ErrPersonNotFound", err)
	}
}

func TestOperationsRequireSplitMode(t *testing.T) {
	mgr := order.NewManager(7, nil, zap.NewNop())
	eng := NewEngine(mgr, 0)
	line, _ := mgr.AddItem(5, model.Product{ID: 1, Name: "Burger", UnitPrice: 12.50})

	if _, err := eng.AddPerson(5, "Alice"); err != ErrNotSplit {
		t.Errorf("AddPerson: err = %v, want ErrNotSplit", err)
	}
	if err := eng.AssignItem(5, line.LineID, "nobody", 1); err != ErrNotSplit {
		t.Errorf("AssignItem: err = %v, want ErrNotSplit", err)
	}
	if _, err := eng.Finalize(5); err != ErrNotSplit {
		t.Errorf("Finalize: err = %v, want ErrNotSplit", err)
	}
}

func TestEnableSplitResetsBills(t *testing.T) {
	_, eng, burgerLine, _ := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)

	if err := eng.EnableSplit(5); err != nil {
		t.Fatalf("re-EnableSplit: %v", err)
	}
	bills, err := eng.Finalize(5)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(bills) != 0 {
		t.Fatalf("re-enabling split should reset bills, got %d", len(bills))
	}
}

func TestMarkPaidReportsCompletion(t *testing.T) {
	_, eng, burgerLine, friesLine := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")
	bob, _ := eng.AddPerson(5, "Bob")
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)
	eng.AssignItem(5, friesLine, bob.PersonID, 1)

	all, err := eng.MarkPaid(5, alice.PersonID)
	if err != nil {
		t.Fatalf("MarkPaid(alice): %v", err)
	}
	if all {
		t.Fatal("bob is still pending, allPaid must be false")
	}
	all, err = eng.MarkPaid(5, bob.PersonID)
	if err != nil {
		t.Fatalf("MarkPaid(bob): %v", err)
	}
	if !all {
		t.Fatal("every bill paid, allPaid must be true")
	}
}

func TestCancelDiscardsBills(t *testing.T) {
	mgr, eng, burgerLine, _ := seatTable(t)
	alice, _ := eng.AddPerson(5, "Alice")
	eng.AssignItem(5, burgerLine, alice.PersonID, 2)

	if err := eng.Cancel(5); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	tab, _ := mgr.Get(5)
	if tab.Order.SplitMode || tab.Order.Bills != nil {
		t.Fatalf("cancel should leave split mode with no bills, got %+v", tab.Order)
	}
	// The cart itself is untouched.
	if len(tab.Order.Items) != 3 {
		t.Fatalf("cart changed: %d lines, want 3", len(tab.Order.Items))
	}
}
