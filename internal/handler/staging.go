package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/events"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/repository"
)

// StagingHandler exposes the staging queue used by self-service devices.
// These devices hold no staff token, only the table binding baked into their
// QR link, so the tenant reference travels in the body/query instead of a
// JWT claim.  Submitted prices are re-resolved against the catalog when the
// product exists; the client-sent price is only a fallback for products
// that were removed from the catalog after the menu was rendered.
type StagingHandler struct {
	Staging  *repository.StagingRepo
	Products *repository.ProductRepo
	Events   events.Publisher
	Log      *zap.Logger
}

// NewStagingHandler constructs a StagingHandler.  All dependencies must be
// non-nil; pass events.Nop{} when no broker is configured.
func NewStagingHandler(staging *repository.StagingRepo, products *repository.ProductRepo, pub events.Publisher, log *zap.Logger) *StagingHandler {
	if staging == nil || products == nil || pub == nil || log == nil {
		panic("nil dependency passed to NewStagingHandler")
	}
	return &StagingHandler{Staging: staging, Products: products, Events: pub, Log: log}
}

type stagingItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

type submitStagingRequest struct {
	TableID  int64         `json:"table_id"`
	TenantID int64         `json:"business_id"`
	Items    []stagingItem `json:"items"`
}

// Submit handles POST /v1/staging.  Each item becomes one staging record;
// the whole submission is atomic so a polling staff terminal never merges
// half an order.  Publishes order.arrived as a reconcile hint.
func (h *StagingHandler) Submit(c echo.Context) error {
	var req submitStagingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TenantID == 0 || req.TableID == 0 || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id, table_id and items required"})
	}

	ctx := c.Request().Context()
	recs := make([]model.StagingRecord, 0, len(req.Items))
	for _, it := range req.Items {
		rec := model.StagingRecord{
			TenantID:  req.TenantID,
			TableID:   req.TableID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if p, err := h.Products.ByID(ctx, req.TenantID, it.ProductID); err == nil {
			rec.Name = p.Name
			rec.UnitPrice = p.UnitPrice
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fail(c, err)
		}
		recs = append(recs, rec)
	}
	if err := h.Staging.Submit(ctx, recs); err != nil {
		return fail(c, err)
	}

	_ = h.Events.Publish(ctx, events.Envelope{
		Kind:       events.OrderArrived,
		TenantID:   req.TenantID,
		TableID:    req.TableID,
		ItemCount:  len(recs),
		OccurredAt: time.Now().UTC(),
	})

	h.Log.Info("staging order submitted",
		zap.Int64("tenant", req.TenantID),
		zap.Int64("table", req.TableID),
		zap.Int("items", len(recs)))
	return c.JSON(http.StatusCreated, echo.Map{"data": recs})
}

// List handles GET /v1/staging?business_id=&table_id=.  Omitting table_id
// returns the tenant's entire queue, which is how a staff terminal discovers
// tables it is not yet tracking.
func (h *StagingHandler) List(c echo.Context) error {
	tenantID, tableID, err := stagingScope(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	recs, err := h.Staging.List(c.Request().Context(), tenantID, tableID)
	if err != nil {
		return fail(c, err)
	}
	if recs == nil {
		recs = []model.StagingRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": recs})
}

// Clear handles DELETE /v1/staging?business_id=&table_id=.  Devices call it
// right after a successful merge; zero deleted rows is still success.
func (h *StagingHandler) Clear(c echo.Context) error {
	tenantID, tableID, err := stagingScope(c)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id and table_id required"})
	}
	n, err := h.Staging.Clear(c.Request().Context(), tenantID, tableID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted_count": n})
}

// stagingScope parses the tenant and optional table references from query
// parameters.
func stagingScope(c echo.Context) (tenantID, tableID int64, err error) {
	tenantID, err = strconv.ParseInt(c.QueryParam("business_id"), 10, 64)
	if err != nil || tenantID == 0 {
		return 0, 0, errors.New("business_id required")
	}
	if s := c.QueryParam("table_id"); s != "" {
		if tableID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, 0, errors.New("invalid table_id")
		}
	}
	return tenantID, tableID, nil
}
