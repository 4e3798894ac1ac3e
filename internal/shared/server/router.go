package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/contracts"
	"contract-backend/internal/services/health"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/server/middleware"
	"contract-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers NewRouter mounts.
type RouterDeps struct {
	Config          config.Config
	ContractHandler *contracts.Handler
	Health          *health.Service
	// Limiter is shared across routers in tests; nil builds a fresh one.
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthHandler := func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
	r.GET("/health", healthHandler)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler)

	contractsGroup := api.Group("")
	if rule, ok := writeRule(deps.Config.UploadRatePerMin); ok {
		contractsGroup.Use(middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.WriteGroup,
			Limiter:  deps.Limiter,
			Rules:    map[string]middleware.RateLimitRule{middleware.GroupWrite: rule},
		}))
	}
	deps.ContractHandler.RegisterRoutes(contractsGroup)

	return r
}

// writeRule converts a per-minute write budget into a token bucket.
// Zero or negative disables limiting.
func writeRule(perMinute int) (middleware.RateLimitRule, bool) {
	if perMinute <= 0 {
		return middleware.RateLimitRule{}, false
	}
	burst := perMinute
	if burst > 10 {
		burst = 10
	}
	return middleware.RateLimitRule{
		Rate:  float64(perMinute) / time.Minute.Seconds(),
		Burst: burst,
	}, true
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
