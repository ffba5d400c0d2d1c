package payment

import (
	"go.uber.org/fx"

	"github.com/congrego/congrego/internal/config"
	"github.com/congrego/congrego/internal/payment/gateway"
	"github.com/congrego/congrego/internal/payment/repository"
	"github.com/congrego/congrego/internal/payment/service"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideAllocations),
	fx.Provide(repository.ProvideInstallments),
	fx.Provide(func(cfg config.Config) gateway.Checkout {
		return gateway.NewAsaasClient(cfg.AsaasBaseURL, cfg.AsaasAPIKey)
	}),
	fx.Provide(service.NewService),
)
