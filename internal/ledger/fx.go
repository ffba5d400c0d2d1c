package ledger

import (
	"github.com/congrego/congrego/internal/ledger/repository"
	"github.com/congrego/congrego/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
