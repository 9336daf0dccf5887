package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagramsListMostRecentlyEditedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateDiagram(ctx, "user-1", models.DiagramRequest{Name: "org", DiagramData: `{"nodes":[]}`})
	require.NoError(t, err)
	require.NotNil(t, first.CreatedBy)

	f.clock.Advance(time.Minute)
	_, err = f.svc.CreateDiagram(ctx, "", models.DiagramRequest{Name: "flow", DiagramData: `[]`})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.svc.UpdateDiagram(ctx, first.ID, models.UpdateDiagramRequest{DiagramData: ptr(`{"nodes":[1]}`)})
	require.NoError(t, err)

	diagrams, err := f.svc.ListDiagrams(ctx)
	require.NoError(t, err)
	require.Len(t, diagrams, 2)
	assert.Equal(t, first.ID, diagrams[0].ID)
	assert.Equal(t, `{"nodes":[1]}`, diagrams[0].DiagramData)
	assert.Equal(t, "org", diagrams[0].Name)
}

func TestDiagramDataMustBeJSON(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDiagram(ctx, "", models.DiagramRequest{Name: "broken", DiagramData: "{nodes"})
	assert.ErrorIs(t, err, service.ErrValidation)

	d, err := f.svc.CreateDiagram(ctx, "", models.DiagramRequest{Name: "ok", DiagramData: "{}"})
	require.NoError(t, err)
	_, err = f.svc.UpdateDiagram(ctx, d.ID, models.UpdateDiagramRequest{DiagramData: ptr("nope")})
	assert.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, f.svc.DeleteDiagram(ctx, d.ID))
	assert.ErrorIs(t, f.svc.DeleteDiagram(ctx, d.ID), service.ErrNotFound)
	_, err = f.svc.GetDiagram(ctx, d.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDraftHeadcountLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateDraftHeadcount(ctx, models.DraftHeadcountRequest{
		PositionTitle: "Data Engineer",
		Department:    ptr("Platform"),
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", item.Status)
	assert.Equal(t, "not_started", item.RecruitingStatus)

	updated, err := f.svc.UpdateDraftHeadcount(ctx, item.ID, models.UpdateDraftHeadcountRequest{
		RecruitingStatus: ptr("interviewing"),
	})
	require.NoError(t, err)
	assert.Equal(t, "interviewing", updated.RecruitingStatus)
	assert.Equal(t, "Data Engineer", updated.PositionTitle)
	require.NotNil(t, updated.Department)
	assert.Equal(t, "Platform", *updated.Department)

	items, err := f.svc.ListDraftHeadcount(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, f.svc.DeleteDraftHeadcount(ctx, item.ID))
	_, err = f.svc.GetDraftHeadcount(ctx, item.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
