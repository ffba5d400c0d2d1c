package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/event/domain"
)

type gormRepository struct{}

// Provide builds the gorm-backed event repository.
func Provide() domain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	err := db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) IncrementAmountCollected(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE events
		 SET amount_collected = amount_collected + ?, updated_at = ?
		 WHERE id = ?`,
		delta,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *gormRepository) IncrementQuantityParticipants(ctx context.Context, db *gorm.DB, id snowflake.ID, n int64) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE events
		 SET quantity_participants = quantity_participants + ?, updated_at = ?
		 WHERE id = ?`,
		n,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
