package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/congrego/congrego/internal/events"
)

// Notifier consumes one committed notification event. Delivery failures are
// retried on the next poll; they never affect the transaction that produced
// the event.
type Notifier interface {
	Notify(ctx context.Context, row events.Row) error
}

// LogNotifier records notifications in the service log. Mail delivery lives
// outside this engine; this is the default sink.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, row events.Row) error {
	n.log.Info("notification dispatched",
		zap.String("event_type", row.EventType),
		zap.Any("payload", map[string]any(row.Payload)),
	)
	return nil
}
