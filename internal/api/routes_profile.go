package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/handlers"
)

func registerProfileRoutes(public, api *gin.RouterGroup, profiles *handlers.ProfileHandler, visibility *handlers.VisibilityHandler, audit *handlers.AuditHandler) {
	public.GET("/users/:userID/profile", profiles.Get)
	public.GET("/users/:userID/sections", visibility.Sections)

	me := api.Group("/me")
	{
		me.GET("/profile", profiles.Me)
		me.PUT("/profile", profiles.Update)
		me.PUT("/sections/:id/visibility", visibility.Set)
		me.GET("/audit", audit.ListMine)
	}
}
