package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ordena/comandero/internal/model"
)

// ProductRepo is the read-only view of the product catalog.  The core never
// mutates catalog rows; it resolves names, prices and preparation areas when
// building cart lines, tickets and staged submissions.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ByID returns one product of the tenant or ErrNotFound.
func (r *ProductRepo) ByID(ctx context.Context, tenantID, id int64) (*model.Product, error) {
	if tenantID == 0 || id == 0 {
		return nil, ErrValidation
	}
	const q = `SELECT id, business_id, name, unit_price, COALESCE(area_id, 0)
		FROM products WHERE id = ? AND business_id = ?`
	var p model.Product
	err := r.db.QueryRowContext(ctx, q, id, tenantID).Scan(&p.ID, &p.TenantID, &p.Name, &p.UnitPrice, &p.AreaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the tenant's catalog ordered by name.
func (r *ProductRepo) List(ctx context.Context, tenantID int64) ([]model.Product, error) {
	if tenantID == 0 {
		return nil, ErrValidation
	}
	const q = `SELECT id, business_id, name, unit_price, COALESCE(area_id, 0)
		FROM products WHERE business_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.UnitPrice, &p.AreaID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
