package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ReviewLog) error
	ListByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, limit int) ([]*ReviewLog, error)
}

// Entry is what callers record; actor and request details come from the
// request context.
type Entry struct {
	PaymentID snowflake.ID
	Action    string
	Metadata  map[string]any
}

// Recorder writes review log entries inside the caller's transaction so the
// trail commits or rolls back with the decision it describes.
type Recorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	ListByPayment(ctx context.Context, paymentID snowflake.ID, limit int) ([]*ReviewLog, error)
}
