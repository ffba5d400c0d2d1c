package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/audit/domain"
)

const defaultListLimit = 50

type reviewLogRepository struct{}

// Provide builds the gorm-backed review log repository.
func Provide() domain.Repository {
	return &reviewLogRepository{}
}

func (r *reviewLogRepository) Insert(ctx context.Context, db *gorm.DB, entry *domain.ReviewLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *reviewLogRepository) ListByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, limit int) ([]*domain.ReviewLog, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	var entries []*domain.ReviewLog
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
