package service_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesDocument() models.KPIDocument {
	return models.KPIDocument{
		KPIWeight:        70,
		CompetencyWeight: 30,
		Perspectives: []models.Perspective{{
			ID:     "p1",
			Name:   "Financial",
			Weight: 40,
			SubKPIs: []models.SubKPI{
				{ID: "k1", Name: "Revenue", Weight: 25, Target: "1M"},
				{ID: "k2", Name: "Margin", Weight: 15, Target: "20%"},
			},
		}},
		Competencies: []models.Competency{{Name: "Teamwork", Rating: 4}},
	}
}

func TestKPIDataRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.GetKPIData(ctx, "sales-manager")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(models.KPIDocument{
		Perspectives: []models.Perspective{},
		Competencies: []models.Competency{},
	}, empty.Document))

	saved, err := f.svc.SaveKPIData(ctx, models.SaveKPIDataRequest{
		Subject:  "sales-manager",
		Document: salesDocument(),
	})
	require.NoError(t, err)
	assert.Equal(t, epoch, saved.UpdatedAt)

	got, err := f.svc.GetKPIData(ctx, "sales-manager")
	require.NoError(t, err)
	if diff := cmp.Diff(salesDocument(), got.Document); diff != "" {
		t.Errorf("kpi document mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveKPIDataRejectsNegativeWeights(t *testing.T) {
	f := newFixture(t)

	doc := salesDocument()
	doc.Perspectives[0].SubKPIs[1].Weight = -5
	_, err := f.svc.SaveKPIData(context.Background(), models.SaveKPIDataRequest{Subject: "x", Document: doc})
	assert.ErrorIs(t, err, service.ErrValidation)

	doc = salesDocument()
	doc.Perspectives[0].Weight = -1
	_, err = f.svc.SaveKPIData(context.Background(), models.SaveKPIDataRequest{Subject: "x", Document: doc})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestKPISetsReplaceWholeCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sets, err := f.svc.GetKPISets(ctx)
	require.NoError(t, err)
	assert.Empty(t, sets)

	first, err := f.svc.SaveKPISets(ctx, []models.KPISet{
		{Name: "Engineer", KPIWeight: 60, CompetencyWeight: 40, Perspectives: salesDocument().Perspectives},
		{ID: "fixed", Name: "Designer", AssignedTo: []string{"u1"}},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.NotEmpty(t, first[0].ID)
	assert.Equal(t, []string{}, first[0].AssignedTo)

	got, err := f.svc.GetKPISets(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("kpi sets mismatch (-want +got):\n%s", diff)
	}

	_, err = f.svc.SaveKPISets(ctx, []models.KPISet{{ID: "fixed", Name: "Designer"}})
	require.NoError(t, err)
	got, err = f.svc.GetKPISets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fixed", got[0].ID)

	_, err = f.svc.SaveKPISets(ctx, []models.KPISet{{Name: ""}})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSettingsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	desc := "Fiscal year start month"

	created, err := f.svc.CreateSetting(ctx, models.SettingRequest{Key: "fy_start", Value: "4", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "4", created.Value)

	_, err = f.svc.CreateSetting(ctx, models.SettingRequest{Key: "fy_start", Value: "1"})
	assert.ErrorIs(t, err, service.ErrConflict)

	updated, err := f.svc.PutSetting(ctx, "fy_start", models.UpdateSettingRequest{Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)

	_, err = f.svc.PutSetting(ctx, "theme", models.UpdateSettingRequest{Value: "dark"})
	require.NoError(t, err)

	all, err := f.svc.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fy_start", all[0].Key)

	require.NoError(t, f.svc.DeleteSetting(ctx, "theme"))
	assert.ErrorIs(t, f.svc.DeleteSetting(ctx, "theme"), service.ErrNotFound)

	_, err = f.svc.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
