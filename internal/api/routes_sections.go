package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/handlers"
)

func registerSectionRoutes(public, api *gin.RouterGroup, sections *handlers.SectionHandler, fields *handlers.ProfileFieldHandler) {
	public.GET("/sections", sections.List)
	public.GET("/sections/:id", sections.Get)
	public.GET("/sections/:id/members", sections.Members)
	public.GET("/sections/:id/fields", fields.List)

	api.GET("/me/sections", sections.ListMine)

	group := api.Group("/sections")
	{
		group.POST("", sections.Create)
		group.PATCH("/:id", sections.Update)
		group.POST("/:id/join", sections.Join)
		group.POST("/:id/leave", sections.Leave)
		group.GET("/:id/membership", sections.Membership)
		group.POST("/:id/requests/:userID", sections.Decide)
		group.DELETE("/:id/members/:userID", sections.RemoveMember)
		group.PUT("/:id/members/:userID/admin", sections.SetAdmin)

		group.POST("/:id/fields", fields.Define)
		group.PUT("/:id/fields/order", fields.Reorder)
		group.PUT("/:id/profile", fields.SaveAnswers)
		group.GET("/:id/profile/:userID", fields.Answers)
		group.GET("/:id/completion", fields.Completion)
	}

	api.PATCH("/fields/:fieldID", fields.Update)
	api.DELETE("/fields/:fieldID", fields.Deactivate)
}
