package services

import (
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/huddle/internal/database/testutil"
)

type rowChange struct {
	Table string
	RowID string
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []rowChange
}

func (n *recordingNotifier) RowsChanged(table, rowID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, rowChange{Table: table, RowID: rowID})
}

func (n *recordingNotifier) tables() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.changes))
	for _, c := range n.changes {
		out = append(out, c.Table)
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	faker      *gofakeit.Faker
	notifier   *recordingNotifier
	audit      *AuditService
	sections   *SectionService
	fields     *ProfileFieldService
	events     *EventService
	rsvps      *RSVPService
	subs       *SubscriptionService
	visibility *VisibilityService
	profiles   *ProfileService
	now        time.Time
}

type envOption func(*envConfig)

type envConfig struct {
	strictCapacity bool
}

func withStrictCapacity() envOption {
	return func(cfg *envConfig) { cfg.strictCapacity = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	env := &testEnv{
		db:       db,
		faker:    gofakeit.New(uint64(time.Now().UnixNano())),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC),
	}

	var err error
	env.audit, err = NewAuditService(db)
	require.NoError(t, err)
	env.profiles, err = NewProfileService(db)
	require.NoError(t, err)
	env.sections, err = NewSectionService(db, env.audit, env.notifier)
	require.NoError(t, err)
	env.fields, err = NewProfileFieldService(db, env.audit, env.notifier)
	require.NoError(t, err)
	env.events, err = NewEventService(db, env.audit, env.notifier)
	require.NoError(t, err)
	env.rsvps, err = NewRSVPService(db, env.audit, env.notifier, env.profiles, RSVPConfig{StrictCapacity: cfg.strictCapacity})
	require.NoError(t, err)
	env.subs, err = NewSubscriptionService(db, env.audit, env.notifier, func() time.Time { return env.now })
	require.NoError(t, err)
	env.visibility, err = NewVisibilityService(db, env.audit, env.notifier)
	require.NoError(t, err)

	return env
}

func (e *testEnv) userID() string {
	return e.faker.UUID()
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
