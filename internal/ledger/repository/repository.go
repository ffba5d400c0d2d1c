package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/ledger/domain"
)

// Repository persists financial movements.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, movement *domain.FinancialMovement) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FinancialMovement, error)
	ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]domain.FinancialMovement, error)
}

type gormRepository struct{}

// Provide builds the gorm-backed movement repository.
func Provide() Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, movement *domain.FinancialMovement) error {
	return db.WithContext(ctx).Create(movement).Error
}

func (r *gormRepository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM financial_movements WHERE id = ?`, id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FinancialMovement, error) {
	var movement domain.FinancialMovement
	err := db.WithContext(ctx).First(&movement, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *gormRepository) ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]domain.FinancialMovement, error) {
	var movements []domain.FinancialMovement
	err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
