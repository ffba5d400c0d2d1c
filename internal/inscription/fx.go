package inscription

import (
	"github.com/congrego/congrego/internal/inscription/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inscription.repository",
	fx.Provide(repository.Provide),
)
