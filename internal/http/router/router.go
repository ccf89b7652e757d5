// Package router assembles the Gin engine from the application's modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "inmueble_backend/internal/http"
	"inmueble_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: global middleware, health endpoints, and one
// route-registration pass over the app's modules.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	// Global per-IP limit; the public intake route carries its own stricter one.
	limiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := app.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := httpkit.AuthRequired(app.Config)

	v1 := engine.Group("/api/v1")
	protected := engine.Group("/api/v1")
	protected.Use(authMiddleware)

	routerCtx := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Protected:         protected,
		Config:            app.Config,
		AuthMiddleware:    authMiddleware,
		IntakeRateLimiter: httpkit.NewIntakeRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if app.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = app.Config.GetCORSOrigins()
		corsConfig.AllowCredentials = app.Config.GetCORSAllowCreds()
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return cors.New(corsConfig)
}
