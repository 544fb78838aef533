package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"section", func() *BaseModel {
			s := &Section{}
			return &s.BaseModel
		}},
		{"section_member", func() *BaseModel {
			m := &SectionMember{}
			return &m.BaseModel
		}},
		{"section_profile_field", func() *BaseModel {
			f := &SectionProfileField{}
			return &f.BaseModel
		}},
		{"section_profile_data", func() *BaseModel {
			d := &SectionProfileData{}
			return &d.BaseModel
		}},
		{"event", func() *BaseModel {
			e := &Event{}
			return &e.BaseModel
		}},
		{"event_rsvp", func() *BaseModel {
			r := &EventRSVP{}
			return &r.BaseModel
		}},
		{"event_group_subscription", func() *BaseModel {
			s := &EventGroupSubscription{}
			return &s.BaseModel
		}},
		{"audit_log", func() *BaseModel {
			a := &AuditLog{}
			return &a.BaseModel
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := tc.model()
			if err := model.BeforeCreate(nil); err != nil {
				t.Fatalf("before create: %v", err)
			}
			if model.ID == "" {
				t.Fatal("expected ID to be generated")
			}
		})
	}
}

func TestSectionBeforeSaveTrims(t *testing.T) {
	s := &Section{CreatorID: " u-1 ", Name: "  Tennis  "}
	require.NoError(t, s.BeforeSave(nil))
	require.Equal(t, "Tennis", s.Name)
	require.Equal(t, "u-1", s.CreatorID)

	require.Error(t, (&Section{CreatorID: "u-1", Name: "   "}).BeforeSave(nil))
	require.Error(t, (&Section{Name: "Tennis"}).BeforeSave(nil))
}

func TestSectionMemberStatusValidation(t *testing.T) {
	require.NoError(t, (&SectionMember{Status: MemberStatusPending}).BeforeSave(nil))
	require.Error(t, (&SectionMember{Status: "invited"}).BeforeSave(nil))
	require.Error(t, (&SectionMember{}).BeforeSave(nil))
}

func TestEventBeforeSaveDefaults(t *testing.T) {
	blank := "   "
	e := &Event{CreatorID: "u-1", Title: "Picnic", GroupName: &blank}
	require.NoError(t, e.BeforeSave(nil))
	require.Equal(t, GuestListPublic, e.GuestListVisibility)
	require.Nil(t, e.GroupName)
	require.False(t, e.HasCapacity())

	bad := &Event{CreatorID: "u-1", GuestListVisibility: "friends"}
	require.Error(t, bad.BeforeSave(nil))

	capacity := 3
	group := " Book Club "
	limited := &Event{CreatorID: "u-1", GroupName: &group, MaxCapacity: &capacity}
	require.NoError(t, limited.BeforeSave(nil))
	require.Equal(t, "Book Club", *limited.GroupName)
	require.True(t, limited.HasCapacity())
}

func TestEventRSVPStatusValidation(t *testing.T) {
	for _, status := range []RSVPStatus{RSVPGoing, RSVPMaybe, RSVPNotGoing} {
		require.NoError(t, (&EventRSVP{Status: status}).BeforeSave(nil))
	}
	require.Error(t, (&EventRSVP{Status: "interested"}).BeforeSave(nil))
}

func TestSectionProfileFieldTypeValidation(t *testing.T) {
	require.NoError(t, (&SectionProfileField{FieldType: FieldTypeMultiselect}).BeforeSave(nil))
	require.Error(t, (&SectionProfileField{FieldType: "color"}).BeforeSave(nil))
}
