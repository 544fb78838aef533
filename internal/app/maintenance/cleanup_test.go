package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/charlesng35/huddle/internal/database/testutil"
	"github.com/charlesng35/huddle/internal/models"
	"github.com/charlesng35/huddle/internal/services"
)

func seedSection(t *testing.T, db *gorm.DB, name string) models.Section {
	t.Helper()
	section := models.Section{CreatorID: "00000000-0000-0000-0000-000000000001", Name: name, RequiresApproval: true}
	require.NoError(t, db.Create(&section).Error)
	return section
}

func seedMember(t *testing.T, db *gorm.DB, sectionID, userID string, status models.MemberStatus, joined time.Time) {
	t.Helper()
	member := models.SectionMember{SectionID: sectionID, UserID: userID, Status: status, JoinedAt: joined}
	require.NoError(t, db.Create(&member).Error)
}

func TestStalePendingRequests(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tennis := seedSection(t, db, "Tennis")
	chess := seedSection(t, db, "Chess")

	seedMember(t, db, tennis.ID, "10000000-0000-0000-0000-000000000001", models.MemberStatusPending, now.Add(-10*24*time.Hour))
	seedMember(t, db, tennis.ID, "10000000-0000-0000-0000-000000000002", models.MemberStatusPending, now.Add(-8*24*time.Hour))
	seedMember(t, db, tennis.ID, "10000000-0000-0000-0000-000000000003", models.MemberStatusPending, now.Add(-time.Hour))
	seedMember(t, db, chess.ID, "10000000-0000-0000-0000-000000000004", models.MemberStatusApproved, now.Add(-30*24*time.Hour))
	seedMember(t, db, chess.ID, "10000000-0000-0000-0000-000000000005", models.MemberStatusRejected, now.Add(-30*24*time.Hour))

	stale, err := StalePendingRequests(context.Background(), db, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, tennis.ID, stale[0].SectionID)
	require.Equal(t, int64(2), stale[0].Pending)
	require.WithinDuration(t, now.Add(-10*24*time.Hour), stale[0].Oldest, time.Second)

	var pending int64
	require.NoError(t, db.Model(&models.SectionMember{}).Where("status = ?", models.MemberStatusPending).Count(&pending).Error)
	require.Equal(t, int64(3), pending)

	_, err = StalePendingRequests(context.Background(), nil, now)
	require.Error(t, err)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	oldLog := models.AuditLog{
		BaseModel: models.BaseModel{CreatedAt: time.Now().AddDate(0, 0, -30)},
		Action:    "section.create",
		Result:    "success",
		Metadata:  "{}",
	}
	require.NoError(t, db.Create(&oldLog).Error)
	require.NoError(t, auditSvc.Log(context.Background(), services.AuditEntry{Action: "section.join", Result: "success"}))

	cleaner := NewCleaner(db, auditSvc,
		WithAuditRetentionDays(7),
		WithNow(func() time.Time { return now }),
		WithPendingStaleAfter(24*time.Hour),
	)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)
}

func TestCleanerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	scheduler := cron.New()
	cleaner := NewCleaner(db, auditSvc,
		WithCron(scheduler),
		WithAuditSchedule("@every 1h"),
		WithPendingReportSchedule("@every 2h"),
	)
	require.NoError(t, cleaner.Start())
	require.Len(t, scheduler.Entries(), 2)

	<-cleaner.Stop().Done()
}

func TestCleanerRejectsInvalidSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(db, auditSvc, WithCron(cron.New()), WithAuditSchedule("not a schedule"))
	require.Error(t, cleaner.Start())
}

func TestCleanerDisabledWithoutDependencies(t *testing.T) {
	scheduler := cron.New()
	cleaner := NewCleaner(nil, nil, WithCron(scheduler))
	require.NoError(t, cleaner.Start())
	require.Empty(t, scheduler.Entries())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
