package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/foodbridge-api/internal/config"
	domainRepo "github.com/sangkips/foodbridge-api/internal/domain/repository"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/handler"
	"github.com/sangkips/foodbridge-api/internal/presentation/http/middleware"
	"github.com/sangkips/foodbridge-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Health  *handler.HealthHandler
	Receipt *handler.ReceiptHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	// TokenValidator is nil when no auth secret is configured
	TokenValidator  *utils.TokenValidator
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Gatherer        prometheus.Gatherer
	RateLimiter     *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Health)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.TokenValidator))

		rateLimiter := deps.RateLimiter
		if rateLimiter == nil {
			rateLimiter = NewRateLimiter(&deps.Cfg.RateLimit)
		}
		protected.Use(rateLimiter.Middleware())

		registerReceiptRoutes(protected, h, deps)
	}

	return router
}

// NewRateLimiter builds the per-caller limiter from RATE_LIMIT_* settings
func NewRateLimiter(cfg *config.RateLimitConfig) *middleware.ClientRateLimiter {
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		limiterCfg.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		limiterCfg.BurstSize = cfg.Requests
	}
	limiterCfg.CleanupInterval = 5 * time.Minute
	limiterCfg.EntryTTL = 10 * time.Minute
	return middleware.NewClientRateLimiter(limiterCfg)
}

func registerReceiptRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/receipt", h.Receipt.GetReceipt)

	receipts := protected.Group("/receipts")
	{
		receipts.GET("", h.Receipt.ListReceipts)
		receipts.GET("/batch", h.Receipt.GetBatchReceipts)
		receipts.GET("/batches/:batchId", h.Receipt.GetBatch)
		// Emailing uses idempotency middleware so retries never send twice
		receipts.POST("/:orderId/email", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Receipt.EmailReceipt)
	}
}
