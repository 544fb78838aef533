package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/models"
)

func TestEventCreateDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.userID()

	group := "  Sunday Runs "
	event, err := env.events.Create(ctx, creator, CreateEventInput{
		Title:     "  Park loop ",
		StartsAt:  env.now,
		GroupName: &group,
		Tags:      []string{"running", " running ", "outdoors", ""},
	})
	require.NoError(t, err)
	require.Equal(t, "Park loop", event.Title)
	require.Equal(t, models.GuestListPublic, event.GuestListVisibility)
	require.Equal(t, "Sunday Runs", *event.GroupName)
	require.Equal(t, []string{"running", "outdoors"}, []string(event.Tags))

	_, err = env.events.Create(ctx, creator, CreateEventInput{StartsAt: env.now})
	require.Error(t, err)

	before := env.now.Add(-time.Hour)
	_, err = env.events.Create(ctx, creator, CreateEventInput{Title: "Backwards", StartsAt: env.now, EndsAt: &before})
	require.Error(t, err)

	_, err = env.events.Create(ctx, creator, CreateEventInput{Title: "Empty", StartsAt: env.now, MaxCapacity: intPtr(0)})
	require.Error(t, err)

	_, err = env.events.Create(ctx, creator, CreateEventInput{Title: "Odd", StartsAt: env.now, GuestListVisibility: "friends"})
	require.Error(t, err)
}

func TestEventUpdateCreatorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.userID()

	event := createEvent(t, env, creator, CreateEventInput{MaxCapacity: intPtr(5)})

	title := "Renamed"
	_, err := env.events.Update(ctx, event.ID, env.userID(), UpdateEventInput{Title: &title})
	require.ErrorIs(t, err, ErrNotAuthorized)

	empty := ""
	visibility := models.GuestListHidden
	updated, err := env.events.Update(ctx, event.ID, creator, UpdateEventInput{
		Title:               &title,
		Published:           boolPtr(true),
		GroupName:           &empty,
		MaxCapacity:         intPtr(0),
		GuestListVisibility: &visibility,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.True(t, updated.Published)
	require.Nil(t, updated.GroupName)
	require.Nil(t, updated.MaxCapacity)
	require.Equal(t, models.GuestListHidden, updated.GuestListVisibility)

	_, err = env.events.Update(ctx, env.userID(), creator, UpdateEventInput{Title: &title})
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventGetHidesDraftsButNotPrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.userID()
	stranger := env.userID()

	draft := createEvent(t, env, creator, CreateEventInput{})
	private := createEvent(t, env, creator, CreateEventInput{Published: true, IsPrivate: true})
	public := createEvent(t, env, creator, CreateEventInput{Published: true})

	_, err := env.events.Get(ctx, draft.ID, stranger)
	require.ErrorIs(t, err, ErrEventNotFound)
	got, err := env.events.Get(ctx, private.ID, stranger)
	require.NoError(t, err)
	require.Equal(t, private.ID, got.ID)

	listed, err := env.events.ListByCreator(ctx, creator, stranger, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, public.ID, listed[0].ID)

	got, err = env.events.Get(ctx, draft.ID, creator)
	require.NoError(t, err)
	require.Equal(t, draft.ID, got.ID)

	got, err = env.events.Get(ctx, public.ID, "")
	require.NoError(t, err)
	require.Equal(t, public.ID, got.ID)
}

func TestEventListByCreatorAndGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.userID()
	group := "Book Club"

	later := createEvent(t, env, creator, CreateEventInput{Published: true, GroupName: &group, StartsAt: env.now.Add(72 * time.Hour)})
	sooner := createEvent(t, env, creator, CreateEventInput{Published: true, GroupName: &group, StartsAt: env.now.Add(24 * time.Hour)})
	createEvent(t, env, creator, CreateEventInput{Published: true})
	createEvent(t, env, creator, CreateEventInput{GroupName: &group})

	grouped, err := env.events.ListByCreator(ctx, creator, env.userID(), &group)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Equal(t, sooner.ID, grouped[0].ID)
	require.Equal(t, later.ID, grouped[1].ID)

	own, err := env.events.ListByCreator(ctx, creator, creator, nil)
	require.NoError(t, err)
	require.Len(t, own, 4)

	groups, err := env.events.ListGroups(ctx, creator)
	require.NoError(t, err)
	require.Equal(t, []string{"Book Club"}, groups)
}
