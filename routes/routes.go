package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meela-intake/handlers"
	"meela-intake/intake"
	"meela-intake/middleware"
	"meela-intake/monitoring"
)

type Options struct {
	Forms           *handlers.FormHandler
	Search          *handlers.SearchHandler
	Health          *handlers.HealthHandler
	Logger          *zap.Logger
	AllowOrigins    []string
	RateLimitPerMin int
}

func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SentryTracing())
	router.Use(middleware.ErrorHandler(opts.Logger))
	router.Use(middleware.RequestMetrics())
	router.Use(cors.New(corsConfig(opts.AllowOrigins)))

	forms := router.Group("/", middleware.RateLimit(opts.RateLimitPerMin, opts.Logger))
	{
		forms.POST(intake.SaveFormPath, opts.Forms.SaveForm)
		forms.POST(intake.LoadFormPath, opts.Forms.LoadForm)
	}

	router.GET("/api/forms/search", opts.Search.SearchForms)
	router.GET("/api/v1/health", opts.Health.Health)
	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
