package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/app"
	"github.com/charlesng35/huddle/internal/handlers"
	"github.com/charlesng35/huddle/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, manager *monitoring.HealthManager) {
	if !cfg.Monitoring.Health.Enabled || manager == nil {
		r.GET("/health", disabledHealthHandler)
		r.GET("/health/live", disabledHealthHandler)
		r.GET("/health/ready", disabledHealthHandler)
		return
	}

	r.GET("/health", handlers.Health(manager))
	r.GET("/health/live", handlers.Liveness(manager))
	r.GET("/health/ready", handlers.Readiness(manager))
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
