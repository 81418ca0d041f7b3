package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestValidKind(t *testing.T) {
	for _, k := range []Kind{OrderArrived, TicketDispatched, TableCleared} {
		if !ValidKind(k) {
			t.Errorf("ValidKind(%q) = false", k)
		}
	}
	for _, k := range []Kind{"", "order", "ticket.created", "TICKET.DISPATCHED"} {
		if ValidKind(k) {
			t.Errorf("ValidKind(%q) = true", k)
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := Envelope{
		Kind:       TicketDispatched,
		TenantID:   42,
		TableID:    5,
		Area:       "Grill",
		TicketID:   7,
		ItemCount:  3,
		OccurredAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	bs, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Envelope
	if err := json.Unmarshal(bs, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip changed the envelope: %+v", out)
	}
}

func TestDisplayQueue(t *testing.T) {
	// One durable queue per area bound to the fanout exchange: two displays
	// for different areas must never end up consuming the same queue, or
	// the broker round-robins events between them.
	tests := []struct {
		area, want string
	}{
		{"Grill", "comandero.display.grill"},
		{"Bar", "comandero.display.bar"},
		{"Cold Station", "comandero.display.cold-station"},
		{"General", "comandero.display.general"},
	}
	for _, tt := range tests {
		if got := DisplayQueue(tt.area); got != tt.want {
			t.Errorf("DisplayQueue(%q) = %q, want %q", tt.area, got, tt.want)
		}
	}
	if DisplayQueue("Grill") == DisplayQueue("Bar") {
		t.Fatal("distinct areas must map to distinct queues")
	}
}

func TestPublisherRejectsUnknownKind(t *testing.T) {
	p := NewAMQPPublisher("amqp://localhost:5672/", nil)
	if err := p.Publish(context.Background(), Envelope{Kind: "bogus"}); err == nil {
		t.Fatal("expected unknown-kind error before any dial")
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), Envelope{Kind: OrderArrived}); err != nil {
		t.Fatalf("Nop.Publish: %v", err)
	}
}
