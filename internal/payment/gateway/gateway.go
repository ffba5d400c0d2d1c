package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest carries what the external processor needs to open a
// checkout session.
type CheckoutRequest struct {
	ExternalReference string
	Value             decimal.Decimal
	Installments      int
	CustomerName      string
	CustomerEmail     string
	Description       string
}

// CheckoutSession is the processor's side of a created checkout. The engine
// only keeps the correlation id and the redirect link.
type CheckoutSession struct {
	ID                string
	Link              string
	ExternalReference string
	Status            string
}

// WebhookEvent is the normalized shape of a processor callback.
type WebhookEvent struct {
	Event             string
	AsaasPaymentID    string
	CheckoutID        string
	Value             decimal.Decimal
	NetValue          decimal.Decimal
	InstallmentNumber int
	InstallmentCount  int
	PaidAt            time.Time
}

// Confirmed reports whether the callback confirms a received charge.
func (e WebhookEvent) Confirmed() bool {
	switch e.Event {
	case "PAYMENT_RECEIVED", "PAYMENT_CONFIRMED":
		return true
	}
	return false
}

// Checkout is the opaque external checkout gateway.
type Checkout interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
