package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/config"
	identitydomain "github.com/scribelabs/scribe/internal/identity/domain"
	"github.com/scribelabs/scribe/internal/plan"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	verifier    identitydomain.Verifier
	usersvc     userdomain.Service
	subsvc      subscriptiondomain.Service
	ledger      usagedomain.Ledger
	aisvc       aidomain.Service
	checkoutsvc billingdomain.CheckoutService
	webhooksvc  billingdomain.WebhookService
	catalog     *plan.Catalog
}

type ServerParam struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	Verifier    identitydomain.Verifier
	UserSvc     userdomain.Service
	SubSvc      subscriptiondomain.Service
	Ledger      usagedomain.Ledger
	AISvc       aidomain.Service
	CheckoutSvc billingdomain.CheckoutService
	WebhookSvc  billingdomain.WebhookService
	Catalog     *plan.Catalog
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:         p.Config,
		log:         p.Log.Named("server"),
		verifier:    p.Verifier,
		usersvc:     p.UserSvc,
		subsvc:      p.SubSvc,
		ledger:      p.Ledger,
		aisvc:       p.AISvc,
		checkoutsvc: p.CheckoutSvc,
		webhooksvc:  p.WebhookSvc,
		catalog:     p.Catalog,
	}
}

func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.Metrics())

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", s.MetricsHandler())
	r.POST("/webhooks/stripe", s.StripeWebhook)

	api := r.Group("/api/v1")
	api.GET("/plans", s.ListPlans)

	authed := api.Group("")
	authed.Use(s.AuthRequired())
	{
		authed.GET("/me", s.GetMe)
		authed.PATCH("/me", s.UpdateMe)
		authed.DELETE("/me", s.DeleteMe)
		authed.GET("/me/usage", s.GetUsage)

		ai := authed.Group("/ai")
		ai.POST("/generate", s.GenerateContent)
		ai.POST("/code", s.GenerateCode)
		ai.POST("/summarize", s.Summarize)
		ai.POST("/translate", s.Translate)

		billing := authed.Group("/billing")
		billing.GET("/subscription", s.GetSubscription)
		billing.POST("/checkout", s.CreateCheckout)
		billing.POST("/portal", s.CreatePortal)
		billing.POST("/cancel", s.CancelSubscription)
		billing.POST("/resume", s.ResumeSubscription)
	}

	return r
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

func Run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
