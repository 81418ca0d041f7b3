package repository

import (
	"context"
	"database/sql"

	"github.com/ordena/comandero/internal/model"
)

// StagingRepo stores cross-device order submissions that have not yet been
// merged into the owning device's aggregate.  Each submitted item becomes
// its own row; records are deleted wholesale per table once a device has
// merged them.
type StagingRepo struct {
	db *sql.DB
}

// NewStagingRepo returns a new StagingRepo bound to the given database.
func NewStagingRepo(db *sql.DB) *StagingRepo { return &StagingRepo{db: db} }

// Submit inserts one row per record inside a single transaction so a partial
// order is never visible to polling devices.  The generated ids and
// submission timestamps are populated on the records.
func (r *StagingRepo) Submit(ctx context.Context, recs []model.StagingRecord) error {
	if len(recs) == 0 {
		return ErrValidation
	}
	for _, rec := range recs {
		if rec.TenantID == 0 || rec.TableID == 0 || rec.ProductID == 0 || rec.Quantity <= 0 {
			return ErrValidation
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const ins = `INSERT INTO staging_orders (business_id, table_id, product_id, name, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?)`
	const sel = `SELECT created_at FROM staging_orders WHERE id = ?`
	for i := range recs {
		rec := &recs[i]
		res, err := tx.ExecContext(ctx, ins, rec.TenantID, rec.TableID, rec.ProductID, rec.Name, rec.Quantity, rec.UnitPrice)
		if err != nil {
			return err
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.SubmittedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns pending staging records for the tenant, newest first within a
// table.  tableID 0 lists records for every table, which is how the staff
// terminal discovers tables it is not yet tracking.
func (r *StagingRepo) List(ctx context.Context, tenantID, tableID int64) ([]model.StagingRecord, error) {
	if tenantID == 0 {
		return nil, ErrValidation
	}
	q := `SELECT id, business_id, table_id, product_id, name, quantity, unit_price, created_at
		FROM staging_orders WHERE business_id = ?`
	args := []any{tenantID}
	if tableID != 0 {
		q += ` AND table_id = ?`
		args = append(args, tableID)
	}
	q += ` ORDER BY table_id, created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StagingRecord
	for rows.Next() {
		var rec model.StagingRecord
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.TableID, &rec.ProductID,
			&rec.Name, &rec.Quantity, &rec.UnitPrice, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear deletes every staging record for a table and returns the number of
// rows removed.  Zero rows is a successful no-op so the merge path can
// retry the delete safely after a failure.
func (r *StagingRepo) Clear(ctx context.Context, tenantID, tableID int64) (int64, error) {
	if tenantID == 0 || tableID == 0 {
		return 0, ErrValidation
	}
	const q = `DELETE FROM staging_orders WHERE business_id = ? AND table_id = ?`
	res, err := r.db.ExecContext(ctx, q, tenantID, tableID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
