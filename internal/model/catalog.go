package model

// AreaGeneral is the fallback preparation area.  Items without an area, with
// an unknown area id, or carrying one of the legacy "no area" sentinels all
// route here.
const AreaGeneral = "General"

// Area is one preparation area (kitchen station) of the business, e.g.
// "Grill" or "Bar".  The directory is an ordered read-only list.
//
// Fields:
//
//	ID       – areas.id.
//	TenantID – areas.business_id.
//	Name     – areas.name, unique per tenant.
//	Position – areas.position, display order.
type Area struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"-"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Product is a read-only view of one catalog entry.  The core never mutates
// catalog data; it only resolves name, price and preparation area when
// building cart lines and tickets.
//
// Fields:
//
//	ID        – products.id.
//	TenantID  – products.business_id.
//	Name      – products.name.
//	UnitPrice – products.unit_price.
//	AreaID    – products.area_id, 0 when the product has no area.
type Product struct {
	ID        int64   `json:"id"`
	TenantID  int64   `json:"-"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	AreaID    int64   `json:"area_id,omitempty"`
}
