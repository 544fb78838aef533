package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/realtime"
)

// HubStats is satisfied by *realtime.Hub.
type HubStats interface {
	Stats() realtime.Stats
}

// Realtime reports the websocket hub down once it has been closed, so load balancers stop
// routing new stream connections to a draining instance.
func Realtime(hub HubStats) monitoring.Check {
	return monitoring.NewCheck("realtime", func(context.Context) monitoring.ProbeResult {
		if hub == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "realtime hub unavailable"}
		}
		stats := hub.Stats()
		if stats.Closed {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "hub closed"}
		}
		return monitoring.ProbeResult{
			Status:  monitoring.StatusUp,
			Details: fmt.Sprintf("%d connections on %d streams", stats.Connections, stats.Streams),
		}
	})
}
