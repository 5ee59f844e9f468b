package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushq/gatepass-backend/internal/config"
	"github.com/campushq/gatepass-backend/internal/handler"
	"github.com/campushq/gatepass-backend/internal/middleware"
	"github.com/campushq/gatepass-backend/internal/response"
	"github.com/campushq/gatepass-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Pass      *handler.PassHandler
	Directory *handler.DirectoryHandler
	Watch     *handler.WatchHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())

	// Health check and Prometheus scrape endpoint.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated identity routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API (JWT + Live Session) ─────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		api.GET("/profile", handlers.Directory.GetMyProfile)

		api.POST("/passes", handlers.Pass.Submit)
		api.GET("/passes", handlers.Pass.ListMine)
		api.GET("/passes/:id", handlers.Pass.Get)
		api.DELETE("/passes/:id", handlers.Pass.Remove)

		// Admin routes. Role is enforced in the services against the
		// directory store on every call, so a revoked grant bites
		// immediately instead of at token expiry.
		api.GET("/admin/passes", handlers.Pass.ListAll)
		api.POST("/admin/passes/:id/decision", handlers.Pass.Decide)
		api.GET("/admin/directory/admins", handlers.Directory.ListAdmins)
		api.POST("/admin/directory/admins", handlers.Directory.GrantAdmin)
		api.DELETE("/admin/directory/admins/:email", handlers.Directory.RevokeAdmin)
	}

	// ─── 3. WebSocket Group (JWT via query token) ──────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		wsGroup.GET("/passes/stream", handlers.Watch.Stream)
	}

	return router
}
