package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// menuMaxAge is how long browsers may keep the taxonomy menus.
const menuMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Question *handler.QuestionHandler
	Taxonomy *handler.TaxonomyHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	apiKeyService *service.APIKeyService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 0. Browser Group (IP Rate Limited) ────────────────────────────
	browser := router.Group("/api/v1")
	if cfg.PublicRatePerMinute > 0 {
		browser.Use(middleware.NewRateLimiter(cfg.PublicRatePerMinute, time.Minute).Middleware())
	}
	{
		browser.GET("/questions", handlers.Question.ListQuestions)
		browser.GET("/questions/:questionId", handlers.Question.GetQuestion)
		browser.GET("/questions/:questionId/similar", handlers.Question.SimilarQuestions)

		menus := browser.Group("")
		menus.Use(middleware.CacheControl(menuMaxAge))
		{
			menus.GET("/subjects", handlers.Taxonomy.ListSubjects)
			menus.GET("/chapters", handlers.Taxonomy.ListChapters)
			menus.GET("/subtopics", handlers.Taxonomy.ListSubtopics)
			menus.GET("/stats", handlers.Taxonomy.GetStats)
		}
	}

	// ─── 1. Public API Group (API Key + Daily Quota) ───────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.RequireAPIKey(apiKeyService))
	{
		publicAPI.GET("/questions", handlers.Question.ListQuestions)
		publicAPI.GET("/questions/:questionId/similar", handlers.Question.SimilarQuestions)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 2. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		adminAPI.GET("/me", handlers.Auth.AdminProfile)
		adminAPI.GET("/system", handlers.System.RuntimeStats)

		adminAPI.GET("/api-keys", handlers.Admin.ListAPIKeys)
		adminAPI.POST("/api-keys", handlers.Admin.IssueAPIKey)
		adminAPI.DELETE("/api-keys/:id", handlers.Admin.RevokeAPIKey)

		adminAPI.POST("/cache/refresh", handlers.Admin.RefreshCache)
		adminAPI.POST("/aggregates/rebuild", handlers.Admin.RebuildAggregates)
	}

	return router
}
