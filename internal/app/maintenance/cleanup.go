package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
	"github.com/charlesng35/huddle/pkg/logger"
	"github.com/charlesng35/huddle/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSpec          = "@daily"
	defaultPendingSpec        = "@hourly"
	defaultPendingStaleAfter  = 7 * 24 * time.Hour

	jobAuditRetention = "audit_retention"
	jobPendingReport  = "pending_report"
)

// Cleaner coordinates background housekeeping: pruning stale audit logs and reporting join
// requests that have waited too long for an admin decision.
type Cleaner struct {
	db         *gorm.DB
	audit      *services.AuditService
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	enabled    bool
	retention  int
	staleAfter time.Duration

	auditSchedule   string
	pendingSchedule string

	mu   sync.Mutex
	jobs map[string]*JobStatus
}

// JobStatus is the run history of one scheduled job.
type JobStatus struct {
	Job                 string    `json:"job"`
	TotalRuns           int       `json:"total_runs"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for staleness comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(schedule string) Option {
	return func(cleaner *Cleaner) {
		if schedule != "" {
			cleaner.auditSchedule = schedule
		}
	}
}

// WithPendingReportSchedule overrides the cron specification for the stale request report.
func WithPendingReportSchedule(schedule string) Option {
	return func(cleaner *Cleaner) {
		if schedule != "" {
			cleaner.pendingSchedule = schedule
		}
	}
}

// WithPendingStaleAfter sets how old a pending request must be before it is reported.
func WithPendingStaleAfter(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.staleAfter = d
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding job being skipped.
func NewCleaner(db *gorm.DB, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		audit:           audit,
		now:             time.Now,
		retention:       defaultAuditRetentionDays,
		staleAfter:      defaultPendingStaleAfter,
		auditSchedule:   defaultAuditSpec,
		pendingSchedule: defaultPendingSpec,
		log:             logger.WithModule("maintenance"),
		jobs:            make(map[string]*JobStatus),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil || cleaner.db != nil

	return cleaner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if err := c.pruneAudit(context.Background()); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule audit cleanup: %w", err)
		}
		c.track(jobAuditRetention)
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.pendingSchedule, func() {
			if _, err := c.reportPending(context.Background()); err != nil {
				c.log.Warn("pending request report failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule pending report: %w", err)
		}
		c.track(jobPendingReport)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Primarily used in tests and during
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		errs = multierr.Append(errs, c.pruneAudit(ctx))
	}

	if c.db != nil {
		_, err := c.reportPending(ctx)
		errs = multierr.Append(errs, err)
	}

	return errs
}

// Jobs returns a snapshot of every scheduled or executed job, ordered by name.
func (c *Cleaner) Jobs() []JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]JobStatus, 0, len(c.jobs))
	for _, job := range c.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (c *Cleaner) track(job string) *JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackLocked(job)
}

func (c *Cleaner) trackLocked(job string) *JobStatus {
	status, ok := c.jobs[job]
	if !ok {
		status = &JobStatus{Job: job}
		c.jobs[job] = status
	}
	return status
}

func (c *Cleaner) recordRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.trackLocked(job)
	status.TotalRuns++
	status.LastRunAt = c.now()
	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		return
	}
	status.ConsecutiveFailures = 0
	status.LastError = ""
}

func (c *Cleaner) pruneAudit(ctx context.Context) error {
	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	c.recordRun(jobAuditRetention, err)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("pruned audit logs", zap.Int64("removed", removed), zap.Int("retention_days", c.retention))
	}
	return nil
}

func (c *Cleaner) reportPending(ctx context.Context) ([]StalePending, error) {
	stale, err := StalePendingRequests(ctx, c.db, c.now().Add(-c.staleAfter))
	c.recordRun(jobPendingReport, err)
	if err != nil {
		return nil, err
	}
	for _, s := range stale {
		c.log.Info("join requests awaiting decision",
			zap.String("section_id", s.SectionID),
			zap.Int64("pending", s.Pending),
			zap.Time("oldest", s.Oldest),
		)
	}
	return stale, nil
}

// StalePending summarises one section's join requests that have waited past the cutoff.
type StalePending struct {
	SectionID string
	Pending   int64
	Oldest    time.Time
}

// StalePendingRequests groups pending memberships requested before cutoff by section. Requests
// are never expired automatically; admins still decide each one.
func StalePendingRequests(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]StalePending, error) {
	if db == nil {
		return nil, errors.New("stale pending requests: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var members []models.SectionMember
	if err := db.WithContext(ctx).
		Where("status = ? AND joined_at < ?", models.MemberStatusPending, cutoff).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("stale pending requests: %w", err)
	}

	index := make(map[string]int)
	var out []StalePending
	for _, m := range members {
		i, ok := index[m.SectionID]
		if !ok {
			index[m.SectionID] = len(out)
			out = append(out, StalePending{SectionID: m.SectionID, Oldest: m.JoinedAt})
			i = len(out) - 1
		}
		out[i].Pending++
	}
	return out, nil
}
