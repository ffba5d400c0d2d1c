package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/congrego/congrego/internal/money"
)

// Status is the inscription lifecycle state.
type Status string

const (
	// StatusPending means the inscription still carries outstanding debt.
	StatusPending Status = "PENDING"
	// StatusUnderReview means the inscription itself awaits manual clearance
	// and cannot receive payments yet.
	StatusUnderReview Status = "UNDER_REVIEW"
	// StatusPaid means the debt is fully settled.
	StatusPaid Status = "PAID"
)

// Inscription is a registration carrying an outstanding debt. TotalPaid is
// only ever mutated through atomic increments in the repository.
type Inscription struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	EventID         snowflake.ID    `gorm:"not null;index"`
	ParticipantName string          `gorm:"type:text;not null"`
	TotalValue      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPaid       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          Status          `gorm:"type:text;not null;default:'PENDING'"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Inscription) TableName() string { return "inscriptions" }

// RemainingDebt is the outstanding value, floored at zero.
func (i *Inscription) RemainingDebt() decimal.Decimal {
	return money.Remaining(i.TotalValue, i.TotalPaid)
}

// IsFullyPaid reports whether the debt is settled within tolerance.
func (i *Inscription) IsFullyPaid(tolerance decimal.Decimal) bool {
	return money.IsSettled(i.TotalPaid, i.TotalValue, tolerance)
}

// AcceptsPayment reports whether the inscription may receive allocations.
func (i *Inscription) AcceptsPayment() bool {
	return i.Status != StatusUnderReview
}
