package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ordena/comandero/internal/model"
)

// TicketRepo provides CRUD operations for kitchen tickets and their items.
// A ticket groups the merged product lines dispatched for one table to one
// preparation area.  Item status is tracked per ticket_items row; the
// by-product update exists for older callers and fans out to every row of
// that product within the ticket.  All timestamp fields are stored in UTC.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Create inserts a ticket and all of its items in one transaction and
// populates the generated ids on the provided model.  Tickets without items
// are rejected: the router must never produce an empty ticket, and the
// storage layer enforces it as well.
func (r *TicketRepo) Create(ctx context.Context, tenantID int64, t *model.KitchenTicket) error {
	if tenantID == 0 || t.TableID == 0 {
		return ErrValidation
	}
	if len(t.Items) == 0 {
		return fmt.Errorf("%w: ticket has no items", ErrValidation)
	}
	for _, it := range t.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return fmt.Errorf("%w: bad ticket item", ErrValidation)
		}
	}
	if t.AreaName == "" {
		t.AreaName = model.AreaGeneral
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const ins = `INSERT INTO tickets (business_id, table_id, area_name) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, tenantID, t.TableID, t.AreaName)
	if err != nil {
		return err
	}
	ticketID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = ticketID

	const insItem = `INSERT INTO ticket_items (ticket_id, product_id, name, quantity, unit_price, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i := range t.Items {
		it := &t.Items[i]
		if it.Status == "" {
			it.Status = model.ItemPending
		}
		res, err := tx.ExecContext(ctx, insItem, ticketID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, string(it.Status))
		if err != nil {
			return err
		}
		if it.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	// Read back the creation timestamp so the caller returns the same value
	// a later query would.
	const sel = `SELECT created_at FROM tickets WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, ticketID).Scan(&t.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Query returns all open tickets for a table, optionally filtered by area
// name.  A ticket is open while at least one of its items is not completed;
// completed items are excluded from the returned item lists so kitchen
// displays only see outstanding work.  tableID 0 returns every open ticket
// of the tenant, which is what area displays poll with.
func (r *TicketRepo) Query(ctx context.Context, tenantID, tableID int64, area string) ([]model.KitchenTicket, error) {
	if tenantID == 0 {
		return nil, ErrValidation
	}
	q := `SELECT t.id, t.table_id, t.area_name, t.created_at,
			i.id, i.product_id, i.name, i.quantity, i.unit_price, i.status
		FROM tickets t
		JOIN ticket_items i ON i.ticket_id = t.id
		WHERE t.business_id = ?
		  AND i.status <> 'completed'`
	args := []any{tenantID}
	if tableID != 0 {
		q += ` AND t.table_id = ?`
		args = append(args, tableID)
	}
	if area != "" {
		q += ` AND t.area_name = ?`
		args = append(args, area)
	}
	q += ` ORDER BY t.table_id, t.created_at DESC, i.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.KitchenTicket
	byID := map[int64]int{} // ticket id -> index in out
	for rows.Next() {
		var (
			tk model.KitchenTicket
			it model.TicketLineItem
		)
		if err := rows.Scan(&tk.ID, &tk.TableID, &tk.AreaName, &tk.CreatedAt,
			&it.ID, &it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Status); err != nil {
			return nil, err
		}
		idx, ok := byID[tk.ID]
		if !ok {
			idx = len(out)
			byID[tk.ID] = idx
			out = append(out, tk)
		}
		out[idx].Items = append(out[idx].Items, it)
	}
	return out, rows.Err()
}

// UpdateLineStatus transitions a single ticket item identified by its row id.
// This is the preferred status key: two dispatched lines for the same
// product advance independently.
func (r *TicketRepo) UpdateLineStatus(ctx context.Context, tenantID, ticketID, itemID int64, status model.ItemStatus) error {
	if tenantID == 0 || ticketID == 0 || itemID == 0 || !model.ValidItemStatus(status) {
		return ErrValidation
	}
	const q = `UPDATE ticket_items i
		JOIN tickets t ON t.id = i.ticket_id
		SET i.status = ?
		WHERE i.id = ? AND i.ticket_id = ? AND t.business_id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), itemID, ticketID, tenantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProductStatus transitions every item of the given product within one
// ticket.  Kept for callers that still key status by product reference; when
// the same product was dispatched twice into the ticket both rows move
// together, which is exactly the collapsing the per-line API avoids.
func (r *TicketRepo) UpdateProductStatus(ctx context.Context, tenantID, ticketID, productID int64, status model.ItemStatus) (int64, error) {
	if tenantID == 0 || ticketID == 0 || productID == 0 || !model.ValidItemStatus(status) {
		return 0, ErrValidation
	}
	const q = `UPDATE ticket_items i
		JOIN tickets t ON t.id = i.ticket_id
		SET i.status = ?
		WHERE i.ticket_id = ? AND i.product_id = ? AND t.business_id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), ticketID, productID, tenantID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// Purge deletes every ticket of a table and returns the number of tickets
// removed.  Items go with their tickets via ON DELETE CASCADE.  Purging a
// table with no tickets is a successful no-op with count zero, which keeps
// the operation safe for at-least-once retry after payment.
func (r *TicketRepo) Purge(ctx context.Context, tenantID, tableID int64) (int64, error) {
	if tenantID == 0 || tableID == 0 {
		return 0, ErrValidation
	}
	const q = `DELETE FROM tickets WHERE business_id = ? AND table_id = ?`
	res, err := r.db.ExecContext(ctx, q, tenantID, tableID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
