package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceDelta is one atomic adjustment to an inscription's paid balance.
type BalanceDelta struct {
	InscriptionID snowflake.ID
	Value         decimal.Decimal
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Inscription, error)
	FindManyByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Inscription, error)
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Inscription, error)
	// IncrementTotalPaid applies each delta as a single atomic
	// UPDATE ... SET total_paid = total_paid + ?. Negative values decrement.
	IncrementTotalPaid(ctx context.Context, db *gorm.DB, deltas []BalanceDelta) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
	CountByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error)
}

var (
	ErrInscriptionNotFound = errors.New("inscription_not_found")
)
