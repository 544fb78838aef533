package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/models"
)

func TestAutoMigrateCreatesCommunityTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.Profile{},
		&models.Section{},
		&models.SectionMember{},
		&models.SectionProfileField{},
		&models.SectionProfileData{},
		&models.SectionVisibility{},
		&models.Event{},
		&models.EventRSVP{},
		&models.EventGroupSubscription{},
		&models.AuditLog{},
	}

	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasIndex(&models.SectionMember{}, "idx_section_member_user"))
}

func TestAutoMigrateNilHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}
