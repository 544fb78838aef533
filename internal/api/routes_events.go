package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/handlers"
)

func registerEventRoutes(public, api *gin.RouterGroup, events *handlers.EventHandler, rsvps *handlers.RSVPHandler, subs *handlers.SubscriptionHandler) {
	public.GET("/events/:id", events.Get)
	public.GET("/events/:id/counts", rsvps.Counts)
	public.GET("/events/:id/spots", rsvps.Spots)
	public.GET("/events/:id/guests", rsvps.Guests)
	public.GET("/creators/:creatorID/events", events.ListByCreator)
	public.GET("/creators/:creatorID/groups", events.ListGroups)
	public.GET("/creators/:creatorID/groups/:group/upcoming", subs.Upcoming)

	group := api.Group("/events")
	{
		group.POST("", events.Create)
		group.PATCH("/:id", events.Update)
		group.PUT("/:id/rsvp", rsvps.Set)
		group.GET("/:id/rsvp", rsvps.Get)
		group.DELETE("/:id/rsvp", rsvps.Clear)
		group.GET("/:id/access", rsvps.Access)
	}

	subscription := api.Group("/creators/:creatorID/groups/:group/subscription")
	{
		subscription.PUT("", subs.Subscribe)
		subscription.DELETE("", subs.Unsubscribe)
		subscription.GET("", subs.Status)
	}
	api.GET("/me/subscriptions", subs.ListMine)
}
