package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered a review action.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// ReviewLog is an immutable record of a decision taken on a payment:
// approval, rejection, reversal, or a gateway-driven release.
type ReviewLog struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	PaymentID snowflake.ID      `gorm:"not null;index"`
	Action    string            `gorm:"type:text;not null;index"`
	ActorType string            `gorm:"type:text;not null"`
	ActorID   *string           `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	IPAddress *string           `gorm:"type:text"`
	UserAgent *string           `gorm:"type:text"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ReviewLog) TableName() string { return "review_logs" }
