package event

import (
	"github.com/congrego/congrego/internal/event/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("event.repository",
	fx.Provide(repository.ProvideCached),
)
