package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/huddle/internal/app/maintenance"
	"github.com/charlesng35/huddle/internal/monitoring"
)

const defaultMaintenanceMaxAge = 26 * time.Hour

// JobSource is satisfied by *maintenance.Cleaner.
type JobSource interface {
	Jobs() []maintenance.JobStatus
}

// Maintenance verifies that scheduled housekeeping succeeds and has run within maxAge.
// Failing or stale jobs degrade readiness but never report down.
func Maintenance(source JobSource, maxAge time.Duration, now func() time.Time) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}
	if now == nil {
		now = time.Now
	}

	return monitoring.NewCheck("maintenance", func(context.Context) monitoring.ProbeResult {
		if source == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
		}

		jobs := source.Jobs()
		if len(jobs) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance jobs registered"}
		}

		status := monitoring.StatusUp
		var notes []string
		current := now()
		for _, job := range jobs {
			switch {
			case job.TotalRuns == 0:
				notes = append(notes, job.Job+": pending first run")
			case job.ConsecutiveFailures > 0:
				status = monitoring.Worst(status, monitoring.StatusDegraded)
				notes = append(notes, fmt.Sprintf("%s: %d consecutive failures (%s)", job.Job, job.ConsecutiveFailures, job.LastError))
			case current.Sub(job.LastRunAt) > maxAge:
				status = monitoring.Worst(status, monitoring.StatusDegraded)
				notes = append(notes, job.Job+": last run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(notes, "; ")}
	})
}
