package audit

import (
	"go.uber.org/fx"

	"github.com/congrego/congrego/internal/audit/repository"
	"github.com/congrego/congrego/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
