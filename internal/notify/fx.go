package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/congrego/congrego/internal/config"
)

var Module = fx.Module("notify",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BatchSize:    cfg.OutboxBatchSize,
			PollInterval: cfg.OutboxPollInterval,
		}
	}),
	fx.Provide(func(log *zap.Logger) Notifier {
		return NewLogNotifier(log)
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.RunForever(context.Background())
			return nil
		},
	})
}
