package services

// RowsNotifier is told whenever a row in one of the community tables changes. It only drives
// client freshness; a nil notifier is valid.
type RowsNotifier interface {
	RowsChanged(table, rowID string)
}

func notifyRows(n RowsNotifier, table, rowID string) {
	if n == nil {
		return
	}
	n.RowsChanged(table, rowID)
}

// Table names published to RowsNotifier.
const (
	TableSections              = "sections"
	TableSectionMembers        = "section_members"
	TableSectionProfileFields  = "section_profile_fields"
	TableSectionProfileData    = "section_profile_data"
	TableSectionVisibility     = "section_visibility"
	TableEvents                = "events"
	TableEventRSVPs            = "event_rsvps"
	TableEventGroupSubscribers = "event_group_subscriptions"
)
