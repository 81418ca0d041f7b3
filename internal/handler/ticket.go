package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/events"
	"github.com/ordena/comandero/internal/middleware"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/repository"
)

// TicketHandler owns the server-authoritative ticket tracker endpoints.  All
// methods assume TenantAuth already resolved the business identity; the
// tenant id scopes every repository call.  Mutating endpoints are designed
// for safe at-least-once retry: creation is driven by the idempotent device
// router and purge is a no-op when nothing is left to delete.
type TicketHandler struct {
	Tickets *repository.TicketRepo // ticket and ticket item storage
	Events  events.Publisher       // best-effort event emission
	Log     *zap.Logger
}

// NewTicketHandler constructs a TicketHandler.  All dependencies must be
// non-nil; pass events.Nop{} when no broker is configured.
func NewTicketHandler(tickets *repository.TicketRepo, pub events.Publisher, log *zap.Logger) *TicketHandler {
	if tickets == nil || pub == nil || log == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: tickets, Events: pub, Log: log}
}

type createTicketItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

type createTicketRequest struct {
	TableID int64              `json:"table_id"`
	Area    string             `json:"area"`
	Items   []createTicketItem `json:"items"`
}

// Create handles POST /v1/tickets.  The body carries one area's merged
// lines for one table; the router on the device has already normalized the
// area and filtered out previously dispatched lines.  Returns 201 with the
// persisted ticket including generated item ids.
func (h *TicketHandler) Create(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	var req createTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	t := model.KitchenTicket{TableID: req.TableID, AreaName: req.Area}
	for _, it := range req.Items {
		t.Items = append(t.Items, model.TicketLineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Status:    model.ItemPending,
		})
	}
	if err := h.Tickets.Create(c.Request().Context(), tenantID, &t); err != nil {
		return fail(c, err)
	}

	// Event emission is best-effort; dispatch must not fail because the
	// broker is down.
	_ = h.Events.Publish(c.Request().Context(), events.Envelope{
		Kind:       events.TicketDispatched,
		TenantID:   tenantID,
		TableID:    t.TableID,
		Area:       t.AreaName,
		TicketID:   t.ID,
		ItemCount:  len(t.Items),
		OccurredAt: time.Now().UTC(),
	})

	h.Log.Info("ticket created",
		zap.Int64("tenant", tenantID),
		zap.Int64("table", t.TableID),
		zap.String("area", t.AreaName),
		zap.Int64("ticket", t.ID),
		zap.Int("items", len(t.Items)))
	return c.JSON(http.StatusCreated, echo.Map{"data": t})
}

// List handles GET /v1/tickets?table_id=&area=.  Only open tickets are
// returned and completed items are filtered out, so this is directly usable
// by both reconciling devices (per table) and area displays (per area).
func (h *TicketHandler) List(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	var tableID int64
	if s := c.QueryParam("table_id"); s != "" {
		if tableID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
		}
	}
	tickets, err := h.Tickets.Query(c.Request().Context(), tenantID, tableID, c.QueryParam("area"))
	if err != nil {
		return fail(c, err)
	}
	if tickets == nil {
		tickets = []model.KitchenTicket{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": tickets})
}

type updateItemRequest struct {
	ItemID    int64            `json:"item_id"`
	ProductID int64            `json:"product_id"`
	Status    model.ItemStatus `json:"status"`
}

// UpdateItem handles PUT /v1/tickets/:id/items.  The preferred key is
// item_id, which moves exactly one ticket line.  product_id remains
// accepted for older kitchen displays and fans out to every line of that
// product within the ticket.
func (h *TicketHandler) UpdateItem(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	var updated int64
	switch {
	case req.ItemID != 0:
		if err := h.Tickets.UpdateLineStatus(ctx, tenantID, ticketID, req.ItemID, req.Status); err != nil {
			return fail(c, err)
		}
		updated = 1
	case req.ProductID != 0:
		if updated, err = h.Tickets.UpdateProductStatus(ctx, tenantID, ticketID, req.ProductID, req.Status); err != nil {
			return fail(c, err)
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_id or product_id required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}

// Purge handles DELETE /v1/tickets?table_id=.  Called after full payment;
// deleting a table that has no tickets succeeds with a zero count so the
// checkout flow may retry freely.
func (h *TicketHandler) Purge(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	tableID, err := strconv.ParseInt(c.QueryParam("table_id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id required"})
	}
	n, err := h.Tickets.Purge(c.Request().Context(), tenantID, tableID)
	if err != nil {
		return fail(c, err)
	}

	_ = h.Events.Publish(c.Request().Context(), events.Envelope{
		Kind:       events.TableCleared,
		TenantID:   tenantID,
		TableID:    tableID,
		OccurredAt: time.Now().UTC(),
	})

	h.Log.Info("tickets purged",
		zap.Int64("tenant", tenantID),
		zap.Int64("table", tableID),
		zap.Int64("deleted", n))
	return c.JSON(http.StatusOK, echo.Map{"deleted_count": n})
}
