package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGatewayMailerSend(t *testing.T) {
	var got mailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode mail request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewGatewayMailer(srv.URL, "orders@furnimart.example")
	if err := m.Send(context.Background(), "c@example.com", "Order order-1 received", "Thank you"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.To != "c@example.com" || got.From != "orders@furnimart.example" {
		t.Fatalf("addressing mismatch: %+v", got)
	}
	if got.Subject != "Order order-1 received" {
		t.Fatalf("subject mismatch: %s", got.Subject)
	}
}

func TestGatewayMailerNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mailbox full", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewGatewayMailer(srv.URL, "orders@furnimart.example")
	if err := m.Send(context.Background(), "c@example.com", "s", "b"); err == nil {
		t.Fatal("expected error for gateway failure")
	}
}

func TestEventRendering(t *testing.T) {
	ev := Event{
		Kind:        KindOrderCancelled,
		OrderID:     "order-1",
		TotalAmount: 1000,
		Penalty:     200,
	}
	if !strings.Contains(ev.Body(), "200.00") {
		t.Fatalf("penalty missing from cancellation body: %s", ev.Body())
	}

	ev.Penalty = 0
	if !strings.Contains(ev.Body(), "reversed in full") {
		t.Fatalf("penalty-free cancellation should mention full reversal: %s", ev.Body())
	}

	reminder := Event{Kind: KindPaymentReminder, OrderID: "order-1", TotalAmount: 500}
	if !strings.Contains(reminder.Subject(), "reminder") {
		t.Fatalf("unexpected reminder subject: %s", reminder.Subject())
	}
}
