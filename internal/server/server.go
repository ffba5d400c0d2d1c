package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/congrego/congrego/internal/audit/domain"
	"github.com/congrego/congrego/internal/auditcontext"
	"github.com/congrego/congrego/internal/config"
	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
	"github.com/congrego/congrego/internal/logger"
	paymentdomain "github.com/congrego/congrego/internal/payment/domain"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	PaymentSvc paymentdomain.Service
	LedgerSvc  ledgerdomain.Service
	Audit      auditdomain.Recorder
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	paymentSvc paymentdomain.Service
	ledgerSvc  ledgerdomain.Service
	audit      auditdomain.Recorder
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		db:         p.DB,
		paymentSvc: p.PaymentSvc,
		ledgerSvc:  p.LedgerSvc,
		audit:      p.Audit,
	}
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	engine.Use(auditContextMiddleware())
	return engine
}

// auditContextMiddleware carries the request's actor and origin into the
// context so review decisions can be attributed.
func auditContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = auditcontext.WithRequestID(ctx, c.Writer.Header().Get("X-Request-Id"))
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		if reviewer := c.GetHeader("X-Reviewer-Id"); reviewer != "" {
			ctx = auditcontext.WithActor(ctx, string(auditdomain.ActorTypeUser), reviewer)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.POST("/payments", s.CreatePayment)
	api.GET("/payments/:id", s.GetPayment)
	api.POST("/payments/:id/approve", s.ApprovePayment)
	api.POST("/payments/:id/reject", s.RejectPayment)
	api.POST("/payments/:id/revert", s.RevertPayment)
	api.GET("/payments/:id/reviews", s.ListPaymentReviews)
	api.POST("/movements", s.CreateMovement)
	api.GET("/events/:id/movements", s.ListMovements)

	engine.POST("/webhooks/asaas", s.AsaasWebhook)
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server, engine *gin.Engine) {
		s.RegisterRoutes(engine)
	}),
	fx.Invoke(RunHTTP),
)
