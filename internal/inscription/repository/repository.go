package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/inscription/domain"
	pkgdb "github.com/congrego/congrego/pkg/db"
)

type gormRepository struct{}

// Provide builds the gorm-backed inscription repository.
func Provide() domain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Inscription, error) {
	var inscription domain.Inscription
	err := db.WithContext(ctx).First(&inscription, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inscription, nil
}

func (r *gormRepository) FindManyByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Inscription, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var inscriptions []domain.Inscription
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&inscriptions).Error; err != nil {
		return nil, err
	}
	return inscriptions, nil
}

func (r *gormRepository) FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Inscription, error) {
	var inscription domain.Inscription
	err := pkgdb.Locking(db.WithContext(ctx)).First(&inscription, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inscription, nil
}

func (r *gormRepository) IncrementTotalPaid(ctx context.Context, db *gorm.DB, deltas []domain.BalanceDelta) error {
	now := time.Now().UTC()
	for _, delta := range deltas {
		result := db.WithContext(ctx).Exec(
			`UPDATE inscriptions
			 SET total_paid = total_paid + ?, updated_at = ?
			 WHERE id = ?`,
			delta.Value,
			now,
			delta.InscriptionID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInscriptionNotFound
		}
	}
	return nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE inscriptions
		 SET status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInscriptionNotFound
	}
	return nil
}

func (r *gormRepository) CountByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Inscription{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
