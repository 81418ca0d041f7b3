package repository

import (
	"context"
	"database/sql"

	"github.com/ordena/comandero/internal/model"
)

// AreaRepo reads the preparation-area directory.  The directory is an
// ordered, read-only list per tenant; creating or editing areas belongs to
// the catalog administration surface, not to this service.
type AreaRepo struct {
	db *sql.DB
}

// NewAreaRepo returns a new AreaRepo bound to the given database.
func NewAreaRepo(db *sql.DB) *AreaRepo { return &AreaRepo{db: db} }

// List returns the tenant's areas in display order.
func (r *AreaRepo) List(ctx context.Context, tenantID int64) ([]model.Area, error) {
	if tenantID == 0 {
		return nil, ErrValidation
	}
	const q = `SELECT id, business_id, name, position FROM areas
		WHERE business_id = ? ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.Position); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
