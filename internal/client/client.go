// Package client is the device-side HTTP client for the ticket, staging,
// catalog and payment APIs.  Errors are classified so the engines above it
// can tell a transient network problem (retry on the next reconcile cycle)
// from a rejected request (surface to the user, do not retry blindly).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ordena/comandero/internal/model"
)

// TransientError marks failures that the polling loop may silently retry:
// connection errors, timeouts and 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Client talks to one comandero server on behalf of one device.  The token
// is the staff JWT carrying the business identity; TenantID must match its
// business_id claim and is used on the tokenless staging endpoints.
type Client struct {
	BaseURL  string
	Token    string
	TenantID int64
	HTTP     *http.Client
}

// New returns a Client with the given base URL, staff token and tenant id.
func New(baseURL, token string, tenantID int64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:  baseURL,
		Token:    token,
		TenantID: tenantID,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// TicketItem is one merged line of a ticket creation request.
type TicketItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// TicketRequest is the body of POST /v1/tickets.
type TicketRequest struct {
	TableID int64        `json:"table_id"`
	Area    string       `json:"area"`
	Items   []TicketItem `json:"items"`
}

// StagingItem is one line of a staging submission.
type StagingItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateTicket persists one kitchen ticket and returns it with generated ids.
func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (*model.KitchenTicket, error) {
	var out struct {
		Data model.KitchenTicket `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/tickets", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Tickets returns the open tickets for a table (0 = all tables), optionally
// filtered by area name.
func (c *Client) Tickets(ctx context.Context, tableID int64, area string) ([]model.KitchenTicket, error) {
	q := url.Values{}
	if tableID != 0 {
		q.Set("table_id", strconv.FormatInt(tableID, 10))
	}
	if area != "" {
		q.Set("area", area)
	}
	var out struct {
		Data []model.KitchenTicket `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tickets", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateLineStatus transitions one ticket line by its item id.
func (c *Client) UpdateLineStatus(ctx context.Context, ticketID, itemID int64, status model.ItemStatus) error {
	body := map[string]any{"item_id": itemID, "status": status}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/tickets/%d/items", ticketID), nil, body, nil)
}

// PurgeTickets deletes every ticket of the table, returning the count.
func (c *Client) PurgeTickets(ctx context.Context, tableID int64) (int64, error) {
	q := url.Values{}
	q.Set("table_id", strconv.FormatInt(tableID, 10))
	var out struct {
		Deleted int64 `json:"deleted_count"`
	}
	if err := c.do(ctx, http.MethodDelete, "/v1/tickets", q, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// SubmitStaging places items into the staging queue for the table.
func (c *Client) SubmitStaging(ctx context.Context, tableID int64, items []StagingItem) error {
	body := map[string]any{"table_id": tableID, "business_id": c.TenantID, "items": items}
	return c.do(ctx, http.MethodPost, "/v1/staging", nil, body, nil)
}

// Staging lists pending staging records for a table (0 = all tables).
func (c *Client) Staging(ctx context.Context, tableID int64) ([]model.StagingRecord, error) {
	q := url.Values{}
	q.Set("business_id", strconv.FormatInt(c.TenantID, 10))
	if tableID != 0 {
		q.Set("table_id", strconv.FormatInt(tableID, 10))
	}
	var out struct {
		Data []model.StagingRecord `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/staging", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ClearStaging deletes the table's staging records after a merge.
func (c *Client) ClearStaging(ctx context.Context, tableID int64) error {
	q := url.Values{}
	q.Set("business_id", strconv.FormatInt(c.TenantID, 10))
	q.Set("table_id", strconv.FormatInt(tableID, 10))
	return c.do(ctx, http.MethodDelete, "/v1/staging", q, nil, nil)
}

// Areas returns the ordered preparation-area directory.
func (c *Client) Areas(ctx context.Context) ([]model.Area, error) {
	var out struct {
		Data []model.Area `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/areas", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Products returns the tenant's catalog.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	var out struct {
		Data []model.Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// RecordPayment stores one settled amount for the table.
func (c *Client) RecordPayment(ctx context.Context, tableID int64, personName, transactionRef, method string, amount float64) error {
	body := map[string]any{
		"table_id":        tableID,
		"person_name":     personName,
		"transaction_ref": transactionRef,
		"method":          method,
		"amount":          amount,
	}
	return c.do(ctx, http.MethodPost, "/v1/payments", nil, body, nil)
}

// do performs one request.  Network failures and 5xx responses come back as
// TransientError; 4xx responses are permanent and carry the server message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		bs, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &TransientError{Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("request rejected: %s", e.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransientError{Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
