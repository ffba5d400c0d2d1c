package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CreateRequest carries everything needed to create a payment and allocate
// it across the selected inscriptions, in selection order.
type CreateRequest struct {
	EventID        snowflake.ID
	Payer          Payer
	Method         Method
	TotalValue     decimal.Decimal
	Installments   int
	ImageURL       string
	InscriptionIDs []snowflake.ID
	// CreateCheckout asks the external gateway for a checkout session and
	// stores its correlation id on the payment.
	CreateCheckout bool
}

// CreateResponse returns the created payment and, when requested, the
// checkout link the payer is redirected to.
type CreateResponse struct {
	Payment      *Payment
	Allocations  []Allocation
	CheckoutLink string
}

// InstallmentNotification is a normalized processor callback for one
// confirmed charge.
type InstallmentNotification struct {
	CheckoutID        string
	AsaasPaymentID    string
	Value             decimal.Decimal
	NetValue          decimal.Decimal
	InstallmentNumber int
	InstallmentCount  int
	PaidAt            time.Time
}

// Service is the payment reconciliation protocol. Every operation runs its
// guards before the first write and applies its effects inside a single
// database transaction.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	Approve(ctx context.Context, paymentID, reviewerID snowflake.ID) (*Payment, error)
	Reject(ctx context.Context, paymentID snowflake.ID, reason string) (*Payment, error)
	Revert(ctx context.Context, paymentID snowflake.ID) (*Payment, error)
	// ConfirmInstallment processes one processor callback. Replays of an
	// already-confirmed AsaasPaymentID return the current payment unchanged.
	ConfirmInstallment(ctx context.Context, notif InstallmentNotification) (*Payment, error)
	GetByID(ctx context.Context, paymentID snowflake.ID) (*Payment, error)
}
