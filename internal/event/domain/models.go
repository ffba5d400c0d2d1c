package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Event is the aggregate an inscription and its payments belong to. The
// collected amount and participant count are the only fields this engine
// mutates, always through atomic increments.
type Event struct {
	ID                   snowflake.ID    `gorm:"primaryKey"`
	Name                 string          `gorm:"type:text;not null"`
	AmountCollected      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	QuantityParticipants int64           `gorm:"not null;default:0"`
	CreatedAt            time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "events" }
