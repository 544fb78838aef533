package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/app"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/handlers"
	"github.com/charlesng35/huddle/internal/middleware"
	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/monitoring/checks"
	"github.com/charlesng35/huddle/internal/realtime"
	"github.com/charlesng35/huddle/internal/services"
)

// Dependencies are the collaborators the router wires into services and handlers.
type Dependencies struct {
	DB     *gorm.DB
	JWT    *iauth.JWTService
	Config *app.Config
	// Hub receives row-change notifications and serves /ws. Optional.
	Hub *realtime.Hub
	// Clock overrides wall time for date-relative queries. Optional.
	Clock func() time.Time
	// Health serves the /health probes. Defaults to a database readiness check.
	Health *monitoring.HealthManager
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	cfg := deps.Config

	svc, err := newServices(deps)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)))
	}
	r.NoRoute(middleware.NotFoundHandler)

	health := deps.Health
	if health == nil {
		health = monitoring.NewHealthManager(5 * time.Second)
		health.RegisterReadiness(checks.Database(deps.DB, 0))
	}
	registerHealthRoutes(r, cfg, health)
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}
	if cfg.Features.Realtime.Enabled && deps.Hub != nil {
		r.GET("/ws", handlers.NewRealtimeHandler(deps.Hub, deps.JWT).Stream)
	}

	// Anonymous callers may browse; a presented token must still be valid.
	public := r.Group("/api")
	public.Use(middleware.OptionalAuth(deps.JWT))

	protected := r.Group("/api")
	protected.Use(middleware.Auth(deps.JWT))

	registerSectionRoutes(public, protected, handlers.NewSectionHandler(svc.sections), handlers.NewProfileFieldHandler(svc.fields))
	registerEventRoutes(public, protected, handlers.NewEventHandler(svc.events), handlers.NewRSVPHandler(svc.rsvps), handlers.NewSubscriptionHandler(svc.subs))
	registerProfileRoutes(public, protected, handlers.NewProfileHandler(svc.profiles), handlers.NewVisibilityHandler(svc.visibility), handlers.NewAuditHandler(svc.audit))

	return r, nil
}

type serviceSet struct {
	audit      *services.AuditService
	profiles   *services.ProfileService
	sections   *services.SectionService
	fields     *services.ProfileFieldService
	visibility *services.VisibilityService
	events     *services.EventService
	rsvps      *services.RSVPService
	subs       *services.SubscriptionService
}

func newServices(deps Dependencies) (*serviceSet, error) {
	var notifier services.RowsNotifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}

	var set serviceSet
	var err error
	if set.audit, err = services.NewAuditService(deps.DB, services.WithAuditClock(services.Clock(deps.Clock))); err != nil {
		return nil, err
	}
	if set.profiles, err = services.NewProfileService(deps.DB); err != nil {
		return nil, err
	}
	if set.sections, err = services.NewSectionService(deps.DB, set.audit, notifier); err != nil {
		return nil, err
	}
	if set.fields, err = services.NewProfileFieldService(deps.DB, set.audit, notifier); err != nil {
		return nil, err
	}
	if set.visibility, err = services.NewVisibilityService(deps.DB, set.audit, notifier); err != nil {
		return nil, err
	}
	if set.events, err = services.NewEventService(deps.DB, set.audit, notifier); err != nil {
		return nil, err
	}
	rsvpCfg := services.RSVPConfig{StrictCapacity: deps.Config.Features.RSVP.StrictCapacity}
	if set.rsvps, err = services.NewRSVPService(deps.DB, set.audit, notifier, set.profiles, rsvpCfg); err != nil {
		return nil, err
	}
	if set.subs, err = services.NewSubscriptionService(deps.DB, set.audit, notifier, services.Clock(deps.Clock)); err != nil {
		return nil, err
	}
	return &set, nil
}
