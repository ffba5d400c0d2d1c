package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/events"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Notifier Notifier
	Config   Config `optional:"true"`
}

// Worker drains the notification outbox after reconciliation transactions
// commit.
type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	notifier Notifier
	cfg      Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("notify.worker"),
		notifier: p.Notifier,
		cfg:      p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("notification dispatch failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	return err
}

func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	if w.db == nil || w.notifier == nil {
		return 0, errors.New("notify_worker_unavailable")
	}
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	var rows []events.Row
	err := w.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, row := range rows {
		if err := w.notifier.Notify(ctx, row); err != nil {
			w.log.Warn("notifier rejected event",
				zap.String("event_type", row.EventType),
				zap.Error(err),
			)
			continue
		}
		if err := w.markPublished(ctx, row); err != nil {
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

func (w *Worker) markPublished(ctx context.Context, row events.Row) error {
	return w.db.WithContext(ctx).Exec(
		`UPDATE notification_events
		 SET published = true, published_at = ?
		 WHERE id = ? AND published = false`,
		time.Now().UTC(),
		row.ID,
	).Error
}
