package server

import (
	"context"
	"net/http"
	"time"

	"gymledger/internal/admin"
	"gymledger/internal/api"
	"gymledger/internal/auth"
	"gymledger/internal/config"
	"gymledger/internal/ledger"
	"gymledger/internal/member"
	"gymledger/internal/notify"
	"gymledger/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router   *gin.Engine
	db       *sqlx.DB
	config   *config.Config
	receipts *notify.Service
	http     *http.Server
}

// New wires every handler onto a router. receipts may be nil, in which case
// no payment receipts are queued and the health check skips Redis.
func New(db *sqlx.DB, cfg *config.Config, receipts *notify.Service) *Server {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		api.RegisterJSONFieldNames(v)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	var (
		sender ledger.ReceiptSender
		queue  queueLengther
	)
	if receipts != nil {
		sender, queue = receipts, receipts
	}
	ledgerService := ledger.NewService(ledger.NewRepository(db), sender, ledger.RetryPolicy{
		MaxAttempts: cfg.LedgerMaxAttempts,
		BaseDelay:   cfg.LedgerRetryBaseDelay,
	})
	catalogService := subscription.NewService(subscription.NewRepository(db))

	adminHandler := admin.NewHandler(admin.NewService(admin.NewRepository(db), cfg.JWTSecret))
	planHandler := subscription.NewHandler(catalogService)
	memberHandler := member.NewHandler(member.NewService(member.NewRepository(db), catalogService, ledgerService))
	ledgerHandler := ledger.NewHandler(ledgerService)

	router.GET("/health", Health(db.PingContext, redisCheck(receipts)))
	router.GET("/metrics", Metrics(queue))

	public := router.Group("/auth")
	{
		public.POST("/login", adminHandler.Login)
		public.POST("/refresh", adminHandler.RefreshToken)
	}

	admins := router.Group("/admin")
	admins.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole(auth.RoleAdmin))
	{
		admins.GET("/me", adminHandler.GetMe)
		admins.POST("/admins", adminHandler.CreateAdmin)
	}

	gym := admins.Group("/gyms/:gymID")
	gym.Use(auth.RequireGymAccess())
	{
		gym.POST("/plans", planHandler.CreatePlan)
		gym.GET("/plans", planHandler.ListPlans)
		gym.GET("/plans/:planID", planHandler.GetPlan)

		gym.POST("/members", memberHandler.AddMember)
		gym.GET("/members", memberHandler.ListMembers)
		gym.GET("/members/:userID", memberHandler.GetMember)
		gym.PATCH("/members/:userID", memberHandler.UpdateMember)

		gym.GET("/members/:userID/plans", ledgerHandler.ListPlans)
		gym.GET("/members/:userID/plans/:planID", ledgerHandler.GetPlan)
		gym.GET("/members/:userID/plans/:planID/payments", ledgerHandler.ListPayments)
		gym.POST("/members/:userID/plans/:planID/payments", ledgerHandler.AddPayment)
		gym.DELETE("/members/:userID/plans/:planID/payments/:paymentID", ledgerHandler.DeletePayment)
	}

	return &Server{
		router:   router,
		db:       db,
		config:   cfg,
		receipts: receipts,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func redisCheck(receipts *notify.Service) func(context.Context) error {
	if receipts == nil {
		return nil
	}
	return receipts.Ping
}
