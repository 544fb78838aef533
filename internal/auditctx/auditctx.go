// Package auditctx carries request provenance from the HTTP layer to the audit log.
package auditctx

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Column widths of the audit log; longer values are truncated on the way in.
const (
	MaxIPAddressLength = 64
	MaxUserAgentLength = 512
)

// Actor describes who initiated a request, as seen by the HTTP layer.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}

// WithActor returns a derived context carrying actor for audit logging.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	actor.UserID = strings.TrimSpace(actor.UserID)
	actor.IPAddress = truncate(strings.TrimSpace(actor.IPAddress), MaxIPAddressLength)
	actor.UserAgent = truncate(strings.TrimSpace(actor.UserAgent), MaxUserAgentLength)
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor metadata from the context.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
