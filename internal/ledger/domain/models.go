package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MovementType classifies a financial movement as money in or money out.
type MovementType string

const (
	MovementTypeIncome  MovementType = "INCOME"
	MovementTypeExpense MovementType = "EXPENSE"
)

// FinancialMovement is an append-only ledger row for an event. Rows are
// never mutated; deletion exists only as the compensating action of a
// payment reversal.
type FinancialMovement struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	EventID     snowflake.ID    `gorm:"not null;index"`
	AccountID   *snowflake.ID   `gorm:"index"`
	Type        MovementType    `gorm:"type:text;not null"`
	Value       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FinancialMovement) TableName() string { return "financial_movements" }
