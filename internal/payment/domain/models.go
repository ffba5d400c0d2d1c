package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Allocation binds a payment to one inscription for a specific value. The
// batch for a payment is written once at creation and read-only afterward;
// reversal compensates balances and the ledger, never the allocations.
type Allocation struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	PaymentID     snowflake.ID    `gorm:"not null;index"`
	InscriptionID snowflake.ID    `gorm:"not null;index"`
	Value         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Allocation) TableName() string { return "payment_allocations" }

// Installment records one confirmed charge of a card payment, keyed by the
// processor's payment id so callback replays can be detected.
type Installment struct {
	ID                  snowflake.ID    `gorm:"primaryKey"`
	PaymentID           snowflake.ID    `gorm:"not null;index"`
	InstallmentNumber   int             `gorm:"not null"`
	Value               decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetValue            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AsaasPaymentID      string          `gorm:"type:text;not null;uniqueIndex:ux_payment_installments_asaas"`
	FinancialMovementID *snowflake.ID
	PaidAt              time.Time `gorm:"not null"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Installment) TableName() string { return "payment_installments" }
