package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ordena/comandero/internal/middleware"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/repository"
)

// PaymentHandler records settled amounts.  One record per direct checkout or
// one per person on a split checkout.  The gateway call happens on the
// device; the server only keeps {transaction ref, method, amount} so the
// checkout flow can verify every bill is settled before clearing the table.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Log      *zap.Logger
}

// NewPaymentHandler constructs a PaymentHandler with non-nil dependencies.
func NewPaymentHandler(payments *repository.PaymentRepo, log *zap.Logger) *PaymentHandler {
	if payments == nil || log == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments, Log: log}
}

type recordPaymentRequest struct {
	TableID        int64   `json:"table_id"`
	PersonName     string  `json:"person_name"`
	TransactionRef string  `json:"transaction_ref"`
	Method         string  `json:"method"`
	Amount         float64 `json:"amount"`
}

// Record handles POST /v1/payments.
func (h *PaymentHandler) Record(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p := model.Payment{
		TenantID:       tenantID,
		TableID:        req.TableID,
		PersonName:     req.PersonName,
		TransactionRef: req.TransactionRef,
		Method:         req.Method,
		Amount:         req.Amount,
	}
	if err := h.Payments.Create(c.Request().Context(), &p); err != nil {
		return fail(c, err)
	}
	h.Log.Info("payment recorded",
		zap.Int64("tenant", tenantID),
		zap.Int64("table", p.TableID),
		zap.String("method", p.Method),
		zap.Float64("amount", p.Amount))
	return c.JSON(http.StatusCreated, echo.Map{"data": p})
}

// List handles GET /v1/payments?table_id=.
func (h *PaymentHandler) List(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	tableID, err := strconv.ParseInt(c.QueryParam("table_id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id required"})
	}
	payments, err := h.Payments.ListByTable(c.Request().Context(), tenantID, tableID)
	if err != nil {
		return fail(c, err)
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": payments})
}
