// Package router assembles the Gin engine from the application's modules.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "contacts_backend/internal/http"
	"contacts_backend/platform/httpkit"
)

// New builds the HTTP engine: shared middleware, the health endpoint and
// every module's routes under /api.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app)))

	globalLimiter := httpkit.NewIPRateLimiter(rate.Limit(20), 40, app.Logger)
	authLimiter := httpkit.NewAuthRateLimiter(app.Logger)

	api := engine.Group("/api")
	api.Use(globalLimiter.RateLimit())

	api.GET("/healthchecker", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			httpkit.Error(c, http.StatusInternalServerError, "Error connecting to the database", nil)
			return
		}
		httpkit.OK(c, gin.H{"message": "Database configured correctly. Welcome to the Contacts API v2.0!"})
	})

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		API:             api,
		AuthMiddleware:  app.AuthMiddleware,
		AuthRateLimiter: authLimiter,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsConfig(app *apphttp.App) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cfg
}
