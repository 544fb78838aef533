package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/huddle/internal/models"
)

func sectionNames(cards []VisibleSection) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Section.Name)
	}
	return out
}

func TestVisibleSectionsByViewerContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.userID()

	chess := createSection(t, env, user, CreateSectionInput{Name: "Chess", IsPublic: true})
	knitting := createSection(t, env, user, CreateSectionInput{Name: "Knitting", IsPublic: true})
	rowing := createSection(t, env, env.userID(), CreateSectionInput{Name: "Rowing", IsPublic: true, RequiresApproval: true})

	_, err := env.sections.RequestJoin(ctx, rowing.ID, user)
	require.NoError(t, err)

	hidden, err := env.visibility.SetVisibility(ctx, user, knitting.ID, false)
	require.NoError(t, err)
	require.False(t, hidden.ShowMembership)

	public, err := env.visibility.VisibleSections(ctx, user, PublicView())
	require.NoError(t, err)
	require.Equal(t, []string{"Chess"}, sectionNames(public))

	self, err := env.visibility.VisibleSections(ctx, user, SelfEditView())
	require.NoError(t, err)
	require.Equal(t, []string{"Chess", "Knitting"}, sectionNames(self))
	require.False(t, self[1].ShowMembership)
	require.True(t, self[0].IsAdmin)

	preview, err := env.visibility.VisibleSections(ctx, user, PreviewAs(knitting.ID))
	require.NoError(t, err)
	require.Equal(t, []string{"Knitting"}, sectionNames(preview))

	// previewing a section the user is not approved in shows nothing
	pendingPreview, err := env.visibility.VisibleSections(ctx, user, PreviewAs(rowing.ID))
	require.NoError(t, err)
	require.Empty(t, pendingPreview)

	// preview never writes
	var flag models.SectionVisibility
	require.NoError(t, env.db.Where("user_id = ? AND section_id = ?", user, knitting.ID).First(&flag).Error)
	require.False(t, flag.ShowMembership)

	shown, err := env.visibility.SetVisibility(ctx, user, knitting.ID, true)
	require.NoError(t, err)
	require.Equal(t, hidden.ID, shown.ID)
	require.True(t, shown.ShowMembership)

	public, err = env.visibility.VisibleSections(ctx, user, PublicView())
	require.NoError(t, err)
	require.Equal(t, []string{"Chess", "Knitting"}, sectionNames(public))

	_, err = env.visibility.VisibleSections(ctx, user, ViewerContext{Mode: ViewerPreview})
	require.Error(t, err)
	_, err = env.visibility.VisibleSections(ctx, user, ViewerContext{Mode: "spy"})
	require.Error(t, err)

	_ = chess
}

func TestSetVisibilityRequiresApprovedMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.userID()

	section := createSection(t, env, env.userID(), CreateSectionInput{RequiresApproval: true})
	_, err := env.visibility.SetVisibility(ctx, user, section.ID, false)
	require.ErrorIs(t, err, ErrNotAMember)

	_, err = env.sections.RequestJoin(ctx, section.ID, user)
	require.NoError(t, err)
	_, err = env.visibility.SetVisibility(ctx, user, section.ID, false)
	require.ErrorIs(t, err, ErrNotAMember)
}

func TestFilterVisibleIsPure(t *testing.T) {
	cards := []VisibleSection{
		{Section: models.Section{BaseModel: models.BaseModel{ID: "b"}, Name: "Beta"}, ShowMembership: false},
		{Section: models.Section{BaseModel: models.BaseModel{ID: "a"}, Name: "Alpha"}, ShowMembership: true},
	}

	public, err := filterVisible(cards, PublicView())
	require.NoError(t, err)
	require.Equal(t, []string{"Alpha"}, sectionNames(public))

	preview, err := filterVisible(cards, PreviewAs("b"))
	require.NoError(t, err)
	require.Equal(t, []string{"Beta"}, sectionNames(preview))

	require.Equal(t, "Beta", cards[0].Section.Name)
	require.False(t, cards[0].ShowMembership)
}
