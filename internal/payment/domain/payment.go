package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is the payment review state.
type Status string

const (
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRefused     Status = "REFUSED"
)

// Method is the payment method reported at checkout.
type Method string

const (
	MethodPix      Method = "PIX"
	MethodCard     Method = "CARD"
	MethodCash     Method = "CASH"
	MethodTransfer Method = "TRANSFER"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m Method) bool {
	switch m {
	case MethodPix, MethodCard, MethodCash, MethodTransfer:
		return true
	}
	return false
}

// Payment is the aggregate root of the reconciliation engine. TotalValue is
// immutable after creation; TotalPaid, TotalNetValue and the installment
// counters only move through the entity methods below, and the repositories
// persist whatever state those methods produce.
type Payment struct {
	ID                  snowflake.ID    `gorm:"primaryKey"`
	EventID             snowflake.ID    `gorm:"not null;index"`
	AccountID           *snowflake.ID   `gorm:"index"`
	GuestName           *string         `gorm:"type:text"`
	GuestEmail          *string         `gorm:"type:text"`
	Status              Status          `gorm:"type:text;not null;default:'UNDER_REVIEW'"`
	TotalValue          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPaid           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalNetValue       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Installments        int             `gorm:"not null;default:1"`
	PaidInstallments    int             `gorm:"not null;default:0"`
	Method              Method          `gorm:"type:text;not null"`
	ImageURL            *string         `gorm:"type:text"`
	RejectionReason     *string         `gorm:"type:text"`
	ApprovedBy          *snowflake.ID
	FinancialMovementID *snowflake.ID
	AsaasCheckoutID     *string           `gorm:"type:text;index:ix_payments_checkout"`
	ExternalReference   *string           `gorm:"type:text"`
	Metadata            datatypes.JSONMap `gorm:"type:jsonb"`
	RevertedAt          *time.Time
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// NewPayment builds a payment in UNDER_REVIEW with nothing paid yet.
func NewPayment(id, eventID snowflake.ID, payer Payer, method Method, totalValue decimal.Decimal, installments int) (*Payment, error) {
	if err := payer.Validate(); err != nil {
		return nil, err
	}
	if !ValidMethod(method) {
		return nil, ErrInvalidMethod
	}
	if !totalValue.IsPositive() {
		return nil, ErrInvalidValue
	}
	if installments < 1 {
		installments = 1
	}

	payment := &Payment{
		ID:               id,
		EventID:          eventID,
		Status:           StatusUnderReview,
		TotalValue:       totalValue,
		TotalPaid:        decimal.Zero,
		TotalNetValue:    decimal.Zero,
		Installments:     installments,
		PaidInstallments: 0,
		Method:           method,
	}
	switch payer.Kind {
	case PayerKindAccount:
		accountID := payer.AccountID
		payment.AccountID = &accountID
	case PayerKindGuest:
		name, email := payer.GuestName, payer.GuestEmail
		payment.GuestName = &name
		payment.GuestEmail = &email
	}
	return payment, nil
}

// Payer reconstructs the payer sum type from the stored columns.
func (p *Payment) Payer() Payer {
	if p.AccountID != nil {
		return AccountPayer(*p.AccountID)
	}
	var name, email string
	if p.GuestName != nil {
		name = *p.GuestName
	}
	if p.GuestEmail != nil {
		email = *p.GuestEmail
	}
	return GuestPayer(name, email)
}

// Approve moves UNDER_REVIEW -> APPROVED. Manual approval is full
// settlement, so the paid total snaps to the total value. The only
// exception is a card payment whose confirmed installments already track
// the balance; its totals keep accumulating through RegisterInstallment.
func (p *Payment) Approve(reviewerID snowflake.ID) error {
	if p.Status != StatusUnderReview {
		return ErrInvalidStatusTransition
	}
	p.Status = StatusApproved
	p.ApprovedBy = &reviewerID
	p.RevertedAt = nil
	if p.Method != MethodCard || p.PaidInstallments == 0 {
		p.TotalPaid = p.TotalValue
	}
	return nil
}

// Reject moves UNDER_REVIEW -> REFUSED. REFUSED is terminal.
func (p *Payment) Reject(reason string) error {
	if p.Status != StatusUnderReview {
		return ErrInvalidStatusTransition
	}
	p.Status = StatusRefused
	p.RejectionReason = &reason
	return nil
}

// Revert moves APPROVED back to UNDER_REVIEW and clears the settlement
// bookkeeping so a later approval starts from a clean slate.
func (p *Payment) Revert(at time.Time) error {
	if p.Status != StatusApproved {
		return ErrInvalidStatusTransition
	}
	p.Status = StatusUnderReview
	p.ApprovedBy = nil
	p.FinancialMovementID = nil
	p.TotalPaid = decimal.Zero
	p.TotalNetValue = decimal.Zero
	p.PaidInstallments = 0
	p.RevertedAt = &at
	return nil
}

// RegisterInstallment accumulates one confirmed installment. A positive
// reportedCount corrects the expected installment total the first time the
// processor reports a different one; the correction never drops below the
// number already paid.
func (p *Payment) RegisterInstallment(gross, net decimal.Decimal, reportedCount int) error {
	if p.Status == StatusRefused {
		return ErrInvalidStatusTransition
	}
	if !gross.IsPositive() || net.IsNegative() {
		return ErrInvalidInstallment
	}
	if reportedCount > 0 && reportedCount != p.Installments && reportedCount >= p.PaidInstallments+1 {
		p.Installments = reportedCount
	}
	if p.PaidInstallments+1 > p.Installments {
		return ErrInstallmentsExceeded
	}
	paid := p.TotalPaid.Add(gross)
	if paid.GreaterThan(p.TotalValue) {
		return ErrPaidAboveTotal
	}
	p.TotalPaid = paid
	p.TotalNetValue = p.TotalNetValue.Add(net)
	p.PaidInstallments++
	return nil
}

// Release marks a card payment APPROVED once an installment guarantees it.
// Already-approved payments stay approved.
func (p *Payment) Release() {
	if p.Status == StatusUnderReview {
		p.Status = StatusApproved
		p.RevertedAt = nil
	}
}

// IsFullyPaid reports whether every expected installment was confirmed.
func (p *Payment) IsFullyPaid() bool {
	return p.PaidInstallments == p.Installments
}

// EligibleForRelease reports whether allocated inscriptions may be settled:
// either the payment is fully paid, or it is a card payment with at least
// one confirmed charge.
func (p *Payment) EligibleForRelease() bool {
	if p.IsFullyPaid() {
		return true
	}
	return p.Method == MethodCard && p.PaidInstallments >= 1
}
