package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	eventdomain "github.com/congrego/congrego/internal/event/domain"
	inscriptiondomain "github.com/congrego/congrego/internal/inscription/domain"
)

const demoEventName = "Demo Event"

// EnsureDemoEvent seeds one event with a couple of open inscriptions so a
// development instance has something to allocate payments against. It is a
// no-op when any event already exists.
func EnsureDemoEvent(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&eventdomain.Event{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		event := eventdomain.Event{
			ID:              node.Generate(),
			Name:            demoEventName,
			AmountCollected: decimal.Zero,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
			return err
		}

		inscriptions := []inscriptiondomain.Inscription{
			{
				ID:              node.Generate(),
				EventID:         event.ID,
				ParticipantName: "Demo Participant 1",
				TotalValue:      decimal.RequireFromString("150.00"),
				TotalPaid:       decimal.Zero,
				Status:          inscriptiondomain.StatusPending,
			},
			{
				ID:              node.Generate(),
				EventID:         event.ID,
				ParticipantName: "Demo Participant 2",
				TotalValue:      decimal.RequireFromString("150.00"),
				TotalPaid:       decimal.Zero,
				Status:          inscriptiondomain.StatusPending,
			},
		}
		return tx.WithContext(ctx).Create(&inscriptions).Error
	})
}
