package router

import (
	"time"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/handler"
	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"
	"github.com/pedrosazl/trust-reclaim-aid/internal/middleware"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"
	"github.com/pedrosazl/trust-reclaim-aid/internal/repository"
	"github.com/pedrosazl/trust-reclaim-aid/internal/service"
	"github.com/pedrosazl/trust-reclaim-aid/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, lookupCB *infra.CircuitBreaker, evidence *infra.EvidenceStore) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	brasilAPI := infra.NewBrasilAPIClient(cfg.BrasilAPIURL)
	events := infra.NewEventPublisher(rdb)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, userRepo, outboxRepo, dispatcher, events, cfg)
	exchangeSvc := service.NewExchangeService(exchangeRepo, productRepo, userRepo, outboxRepo, dispatcher, events, cfg)
	analyticsSvc := service.NewAnalyticsService(exchangeRepo, rdb)
	notificationSvc := service.NewNotificationService(notificationRepo)
	presenceSvc := service.NewPresenceService(presenceRepo, userRepo, events, cfg)
	reportSvc := service.NewReportService(exchangeRepo, analyticsSvc)
	cnpjSvc := service.NewCNPJService(brasilAPI, lookupCB)
	auditSvc := service.NewAuditService(auditRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	exchangesH := handler.NewExchangesHandler(exchangeSvc, evidence)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)
	notificationsH := handler.NewNotificationsHandler(notificationSvc)
	presenceH := handler.NewPresenceHandler(presenceSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	cnpjH := handler.NewCNPJHandler(cnpjSvc)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Evidence files (signatures and photos)
	r.Static("/files", evidence.BasePath())

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		// Exchanges — any authenticated user creates and reads (scoped);
		// decisions and dispositions are admin-only
		v1.POST("/exchanges", exchangesH.Create)
		v1.GET("/exchanges", exchangesH.List)
		v1.GET("/exchanges/:id", exchangesH.Get)
		v1.POST("/exchanges/sync-batch", exchangesH.SyncBatch)
		v1.POST("/exchanges/:id/approve", adminOnly, exchangesH.Approve)
		v1.POST("/exchanges/:id/reject", adminOnly, exchangesH.Reject)
		v1.PATCH("/exchanges/:id/products/:itemId", adminOnly, exchangesH.SetDisposition)

		// Products — reads and edits open to all users, deletion admin-only
		v1.GET("/products", productsH.List)
		v1.GET("/products/:id", productsH.Get)
		v1.POST("/products", productsH.Create)
		v1.PUT("/products/:id", productsH.Update)
		v1.DELETE("/products/:id", adminOnly, productsH.Delete)

		// Analytics — scoped per role inside the service
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/summary", analyticsH.FinancialSummary)
			analytics.GET("/categories", analyticsH.LossByCategory)
			analytics.GET("/reasons", analyticsH.ReasonBuckets)
			analytics.GET("/timeline", analyticsH.Timeline)
			analytics.GET("/inventory", analyticsH.InventoryStats)
		}

		// Reports — admin-only export
		v1.GET("/reports/exchanges", adminOnly, reportsH.Exchanges)

		// Audit trail — admin-only
		v1.GET("/audit", adminOnly, auditH.List)

		// Notifications
		v1.GET("/notifications", notificationsH.List)
		v1.PATCH("/notifications/:id/read", notificationsH.MarkRead)
		v1.POST("/notifications/read-all", notificationsH.MarkAllRead)

		// Presence
		v1.PUT("/presence", presenceH.Heartbeat)
		v1.DELETE("/presence", presenceH.GoOffline)
		v1.GET("/presence/online", presenceH.ListOnline)

		// CNPJ lookup proxy
		v1.POST("/cnpj/search", cnpjH.Search)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
