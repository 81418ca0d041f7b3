package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL, "staff-token", 42, time.Second)
}

func TestRequestsCarryAuthAndTenant(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.Staging(context.Background(), 9); err != nil {
		t.Fatalf("Staging: %v", err)
	}
	if gotAuth != "Bearer staff-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "business_id=42") || !strings.Contains(gotQuery, "table_id=9") {
		t.Errorf("query = %q, want business_id and table_id", gotQuery)
	}
}

func TestTicketsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":7,"table_id":5,"area":"Grill","items":[{"id":70,"product_id":1,"name":"Steak","quantity":2,"unit_price":20,"status":"pending"}]}]}`))
	}))
	defer srv.Close()

	tickets, err := newTestClient(srv).Tickets(context.Background(), 5, "Grill")
	if err != nil {
		t.Fatalf("Tickets: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != 7 || tickets[0].AreaName != "Grill" {
		t.Fatalf("tickets = %+v", tickets)
	}
	if len(tickets[0].Items) != 1 || tickets[0].Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", tickets[0].Items)
	}
}

func TestServerErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Tickets(context.Background(), 0, "")
	if err == nil || !IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestNetworkErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from now on

	_, err := newTestClient(srv).Tickets(context.Background(), 0, "")
	if err == nil || !IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestRejectionsArePermanentAndCarryMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"items required"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateTicket(context.Background(), TicketRequest{TableID: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Fatal("a 400 must not be retried as transient")
	}
	if !strings.Contains(err.Error(), "items required") {
		t.Fatalf("err = %v, want the server message", err)
	}
}

func TestPurgeTicketsReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.Write([]byte(`{"deleted_count":3}`))
	}))
	defer srv.Close()

	n, err := newTestClient(srv).PurgeTickets(context.Background(), 5)
	if err != nil {
		t.Fatalf("PurgeTickets: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted = %d, want 3", n)
	}
}
