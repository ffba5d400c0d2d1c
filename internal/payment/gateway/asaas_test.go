package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseWebhookNormalizesAmounts(t *testing.T) {
	body := []byte(`{
		"event": "PAYMENT_RECEIVED",
		"payment": {
			"id": "pay_123",
			"checkout": "chk_abc",
			"externalReference": "900001",
			"value": 100.1,
			"netValue": 97.02,
			"installmentNumber": 2,
			"installmentCount": 3,
			"paymentDate": "2026-08-28"
		}
	}`)

	event, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.AsaasPaymentID != "pay_123" || event.CheckoutID != "chk_abc" {
		t.Fatalf("identifiers wrong: %+v", event)
	}
	if !event.Value.Equal(decimal.RequireFromString("100.10")) {
		t.Fatalf("value not normalized: %s", event.Value)
	}
	if !event.NetValue.Equal(decimal.RequireFromString("97.02")) {
		t.Fatalf("net value not normalized: %s", event.NetValue)
	}
	if event.InstallmentNumber != 2 || event.InstallmentCount != 3 {
		t.Fatalf("installment counters wrong: %d/%d", event.InstallmentNumber, event.InstallmentCount)
	}
	if event.PaidAt.Format("2006-01-02") != "2026-08-28" {
		t.Fatalf("payment date wrong: %s", event.PaidAt)
	}
	if !event.Confirmed() {
		t.Fatalf("PAYMENT_RECEIVED must confirm")
	}
}

func TestParseWebhookDecodesAmountsExactly(t *testing.T) {
	// 18 significant digits would be mangled by a float64 intermediary.
	body := []byte(`{
		"event": "PAYMENT_CONFIRMED",
		"payment": {
			"id": "pay_123",
			"checkout": "chk_abc",
			"value": 9999999999999999.99,
			"netValue": 9999999999999999.95
		}
	}`)

	event, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if !event.Value.Equal(decimal.RequireFromString("9999999999999999.99")) {
		t.Fatalf("value lost precision: %s", event.Value)
	}
	if !event.NetValue.Equal(decimal.RequireFromString("9999999999999999.95")) {
		t.Fatalf("net value lost precision: %s", event.NetValue)
	}
}

func TestParseWebhookRejectsMalformedPayload(t *testing.T) {
	if _, err := ParseWebhook([]byte(`{"event": "PAYMENT_RECEIVED"}`)); err == nil {
		t.Fatalf("payload without a payment id must fail")
	}
	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Fatalf("invalid json must fail")
	}
}

func TestWebhookEventConfirmed(t *testing.T) {
	cases := map[string]bool{
		"PAYMENT_RECEIVED":  true,
		"PAYMENT_CONFIRMED": true,
		"PAYMENT_CREATED":   false,
		"PAYMENT_OVERDUE":   false,
	}
	for name, want := range cases {
		if got := (WebhookEvent{Event: name}).Confirmed(); got != want {
			t.Fatalf("%s: confirmed=%v, want %v", name, got, want)
		}
	}
}

func TestCreateCheckout(t *testing.T) {
	var captured asaasCheckoutRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkouts" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("access_token"); got != "key_test" {
			t.Fatalf("missing api key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(asaasCheckoutResponse{
			ID:                "chk_abc",
			Link:              "https://checkout.example/chk_abc",
			ExternalReference: captured.ExternalReference,
			Status:            "ACTIVE",
		})
	}))
	defer server.Close()

	client := NewAsaasClient(server.URL, "key_test")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := client.CreateCheckout(ctx, CheckoutRequest{
		ExternalReference: "900001",
		Value:             decimal.RequireFromString("300.00"),
		Installments:      3,
		CustomerName:      "Ana Souza",
		CustomerEmail:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if session.ID != "chk_abc" || session.ExternalReference != "900001" {
		t.Fatalf("session wrong: %+v", session)
	}
	if captured.Value != "300.00" {
		t.Fatalf("amount must travel as a fixed string, got %q", captured.Value)
	}
	if captured.InstallmentCount != 3 {
		t.Fatalf("installment count wrong: %d", captured.InstallmentCount)
	}
}

func TestCreateCheckoutRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewAsaasClient(server.URL, "key_bad")
	if _, err := client.CreateCheckout(context.Background(), CheckoutRequest{
		ExternalReference: "900001",
		Value:             decimal.RequireFromString("10.00"),
	}); err == nil {
		t.Fatalf("non-2xx response must fail")
	}
}
