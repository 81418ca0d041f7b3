package repository

import (
	"context"
	"database/sql"

	"github.com/ordena/comandero/internal/model"
)

// PaymentRepo records settled amounts.  One row per direct checkout, or one
// row per person for split checkouts.  The gateway interaction happens
// outside the core; only {transaction ref, method, amount} is stored.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts one payment record and populates its id and timestamp.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	if p.TenantID == 0 || p.TableID == 0 || p.TransactionRef == "" || p.Method == "" || p.Amount < 0 {
		return ErrValidation
	}
	const ins = `INSERT INTO payments (business_id, table_id, person_name, transaction_ref, method, amount)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, ins, p.TenantID, p.TableID, p.PersonName, p.TransactionRef, p.Method, p.Amount)
	if err != nil {
		return err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	const sel = `SELECT created_at FROM payments WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// ListByTable returns payments recorded for a table, oldest first, so a
// checkout flow can verify every split bill has been settled before the
// table is cleared.
func (r *PaymentRepo) ListByTable(ctx context.Context, tenantID, tableID int64) ([]model.Payment, error) {
	if tenantID == 0 || tableID == 0 {
		return nil, ErrValidation
	}
	const q = `SELECT id, business_id, table_id, person_name, transaction_ref, method, amount, created_at
		FROM payments WHERE business_id = ? AND table_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.TableID, &p.PersonName,
			&p.TransactionRef, &p.Method, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
