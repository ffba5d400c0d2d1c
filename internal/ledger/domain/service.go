package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateMovement carries the data for one ledger row.
type CreateMovement struct {
	EventID     snowflake.ID
	AccountID   *snowflake.ID
	Type        MovementType
	Value       decimal.Decimal
	Description string
}

// Service writes and compensates financial movements. CreateTx and DeleteTx
// take the caller's transaction handle so a movement always commits or rolls
// back with the operation that produced it.
type Service interface {
	Create(ctx context.Context, movement CreateMovement) (*FinancialMovement, error)
	CreateTx(ctx context.Context, tx *gorm.DB, movement CreateMovement) (*FinancialMovement, error)
	// DeleteTx removes one movement as the compensating step of a payment
	// reversal and returns the removed row so the caller can undo whatever
	// that row credited. It is the only permitted deletion path.
	DeleteTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*FinancialMovement, error)
	ListByEvent(ctx context.Context, eventID snowflake.ID) ([]FinancialMovement, error)
}

var (
	ErrInvalidEvent        = errors.New("invalid_event")
	ErrInvalidMovementType = errors.New("invalid_movement_type")
	ErrInvalidValue        = errors.New("invalid_value")
	ErrMovementNotFound    = errors.New("movement_not_found")
)
