package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	// IncrementAmountCollected adds delta to the event's collected amount.
	// A negative delta decrements, used by payment reversal.
	IncrementAmountCollected(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal) error
	IncrementQuantityParticipants(ctx context.Context, db *gorm.DB, id snowflake.ID, n int64) error
}

var ErrEventNotFound = errors.New("event_not_found")
