package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/worktugal/worktugal/internal/checkup"
	checkupdomain "github.com/worktugal/worktugal/internal/checkup/domain"
	"github.com/worktugal/worktugal/internal/config"
	"github.com/worktugal/worktugal/internal/consult"
	"github.com/worktugal/worktugal/internal/lead"
	leaddomain "github.com/worktugal/worktugal/internal/lead/domain"
	"github.com/worktugal/worktugal/internal/notify"
	"github.com/worktugal/worktugal/internal/observability"
	obsmiddleware "github.com/worktugal/worktugal/internal/observability/logger"
	obsmetrics "github.com/worktugal/worktugal/internal/observability/metrics"
	obstracing "github.com/worktugal/worktugal/internal/observability/tracing"
	"github.com/worktugal/worktugal/internal/partner"
	partnerdomain "github.com/worktugal/worktugal/internal/partner/domain"
	"github.com/worktugal/worktugal/internal/payment"
	paymentdomain "github.com/worktugal/worktugal/internal/payment/domain"
	"github.com/worktugal/worktugal/internal/ratelimit"
	"github.com/worktugal/worktugal/internal/review"
	reviewdomain "github.com/worktugal/worktugal/internal/review/domain"
	"github.com/worktugal/worktugal/internal/subscription"
	"github.com/worktugal/worktugal/internal/user"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	config.RulesModule,
	notify.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	checkup.Module,
	consult.Module,
	partner.Module,
	user.Module,
	payment.Module,
	review.Module,
	subscription.Module,
	lead.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	checkupSvc  checkupdomain.Service
	checkoutSvc paymentdomain.CheckoutService
	reconciler  paymentdomain.Reconciler
	reviewSvc   reviewdomain.Service
	leadSvc     leaddomain.Service
	leadRepo    leaddomain.Repository
	partnerSvc  partnerdomain.Service
	bucket      *ratelimit.TokenBucket
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	CheckupSvc  checkupdomain.Service
	CheckoutSvc paymentdomain.CheckoutService
	Reconciler  paymentdomain.Reconciler
	ReviewSvc   reviewdomain.Service
	LeadSvc     leaddomain.Service
	LeadRepo    leaddomain.Repository
	PartnerSvc  partnerdomain.Service
	Bucket      *ratelimit.TokenBucket
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("server"),
		genID:       p.GenID,
		checkupSvc:  p.CheckupSvc,
		checkoutSvc: p.CheckoutSvc,
		reconciler:  p.Reconciler,
		reviewSvc:   p.ReviewSvc,
		leadSvc:     p.LeadSvc,
		leadRepo:    p.LeadRepo,
		partnerSvc:  p.PartnerSvc,
		bucket:      p.Bucket,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	// Form endpoints share one per-IP budget; the provider webhook is
	// exempt so its retries are never throttled.
	limited := ratelimit.PerIP(s.bucket, s.log, 2, 20)

	s.engine.POST("/tax-checkup", limited, s.HandleTaxCheckup)
	s.engine.POST("/paid-review-checkout", limited, s.HandleCreateCheckout)
	s.engine.POST("/verify-paid-review", limited, s.HandleVerifyPaidReview)
	s.engine.POST("/submit-paid-review", limited, s.HandleSubmitPaidReview)
	s.engine.POST("/paid-review-webhook-notify", limited, s.HandleNotifyPaidReview)
	s.engine.POST("/submit-lead", limited, s.HandleSubmitLead)
	s.engine.POST("/submit-contact-request", limited, s.HandleSubmitContact)
	s.engine.POST("/submit-accountant-application", limited, s.HandleSubmitApplication)
	s.engine.POST("/submit-partner", limited, s.HandleSubmitPartner)

	s.engine.POST("/stripe-webhook", s.HandleStripeWebhook)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminAuthRequired())
	admin.GET("/checkups", s.HandleListCheckups)
	admin.GET("/leads", s.HandleListLeads)
}
