package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/api"
	"github.com/charlesng35/huddle/internal/app"
	"github.com/charlesng35/huddle/internal/app/maintenance"
	iauth "github.com/charlesng35/huddle/internal/auth"
	"github.com/charlesng35/huddle/internal/database"
	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/monitoring/checks"
	"github.com/charlesng35/huddle/internal/realtime"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Hub     *realtime.Hub
	Cleaner *maintenance.Cleaner
	Health  *monitoring.HealthManager
	Handler http.Handler
}

// bootstrapRuntime opens the database and wires services, background jobs and the HTTP handler.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	if cfg.Features.Realtime.Enabled {
		stack.Hub = realtime.NewHub(realtime.WithAllowedOrigins(cfg.Server.CORS.AllowedOrigins))
	}

	if cfg.Maintenance.Enabled {
		auditSvc, err := services.NewAuditService(stack.DB)
		if err != nil {
			return nil, fmt.Errorf("initialise audit service: %w", err)
		}
		stack.Cleaner = maintenance.NewCleaner(stack.DB, auditSvc,
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
			maintenance.WithPendingReportSchedule(cfg.Maintenance.PendingReportSchedule),
			maintenance.WithPendingStaleAfter(cfg.Maintenance.PendingStaleAfter),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Health = newHealthManager(stack)

	router, err := api.NewRouter(api.Dependencies{
		DB:     stack.DB,
		JWT:    jwtSvc,
		Config: cfg,
		Hub:    stack.Hub,
		Health: stack.Health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}
	stack.Handler = withCORS(router, cfg.Server.CORS.AllowedOrigins)

	success = true
	return stack, nil
}

func newHealthManager(stack *runtimeStack) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager(5 * time.Second)
	manager.RegisterReadiness(checks.Database(stack.DB, 0))
	if stack.Hub != nil {
		manager.RegisterReadiness(checks.Realtime(stack.Hub))
	}
	if stack.Cleaner != nil {
		manager.RegisterReadiness(checks.Maintenance(stack.Cleaner, 0, nil))
	}
	return manager
}

func withCORS(next http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "Retry-After"},
		MaxAge:         600,
	}).Handler(next)
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Hub != nil {
		s.Hub.Close()
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOpenConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}
