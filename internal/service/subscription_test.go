package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/planning-tool/planner-server/internal/utils"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context, provider, apiKey, baseURL string) error

func (f checkerFunc) CheckKey(ctx context.Context, provider, apiKey, baseURL string) error {
	return f(ctx, provider, apiKey, baseURL)
}

func seedTenant(t *testing.T, f *fixture) models.Tenant {
	t.Helper()
	f.store.AddPlan(models.Plan{
		ID: "plan-pro", Name: "pro", DisplayName: "Pro",
		MaxUsers: 25, MaxTasks: 1000, MaxTeams: 10,
		IsActive: true, IsPublic: true, SortOrder: 2,
	})
	f.store.AddPlan(models.Plan{ID: "plan-internal", Name: "internal", IsActive: true, SortOrder: 1})
	tenant := models.Tenant{
		ID: "acme", Name: "Acme", Slug: "acme", Email: "ops@acme.test",
		Timezone: "UTC", PlanID: "plan-pro", SubscriptionStatus: models.SubscriptionActive,
		Settings: models.JSONMap{}, IsActive: true,
	}
	f.store.AddTenant(tenant)
	return tenant
}

func TestSubscriptionInfoCountsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := seedTenant(t, f)

	for _, name := range []string{"quinn", "rosa"} {
		u := f.addUser(t, name)
		u.TenantID = &tenant.ID
		require.NoError(t, f.store.UpdateUser(ctx, u))
	}

	info, err := f.svc.GetSubscriptionInfo(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.Tenant.Name)
	assert.Equal(t, "plan-pro", info.Plan.ID)
	assert.Equal(t, models.UsageLimit{Used: 2, Limit: 25}, info.Usage.Users)
	assert.Equal(t, models.UsageLimit{Used: 0, Limit: 1000}, info.Usage.Tasks)
	assert.Equal(t, models.UsageLimit{Used: 0, Limit: 10}, info.Usage.Teams)

	_, err = f.svc.GetSubscriptionInfo(ctx, "")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = f.svc.GetSubscriptionInfo(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListPlansOnlyPublic(t *testing.T) {
	f := newFixture(t)
	seedTenant(t, f)

	plans, err := f.svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-pro", plans[0].ID)

	_, err = f.svc.GetPlan(context.Background(), "plan-gold")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateTenantKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	tenant := seedTenant(t, f)

	updated, err := f.svc.UpdateTenant(context.Background(), tenant.ID, models.UpdateTenantRequest{
		Timezone: ptr("Asia/Bangkok"),
		LogoURL:  ptr("https://cdn.acme.test/logo.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "Asia/Bangkok", updated.Timezone)
	require.NotNil(t, updated.LogoURL)
	assert.Equal(t, epoch, updated.UpdatedAt)
}

func TestAIKeysAreMaskedAndTenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := seedTenant(t, f)

	created, err := f.svc.CreateAIKey(ctx, tenant.ID, "admin-1", models.CreateAIKeyRequest{
		Provider: models.ProviderOpenAI,
		Name:     "prod",
		APIKey:   "sk-live-1234567890abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-l...abcd", created.APIKeyMasked)
	assert.True(t, created.IsActive)

	stored, err := f.store.GetAIKey(ctx, created.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.APIKeyEncrypted, "sk-live")

	_, err = f.svc.UpdateAIKey(ctx, "other", created.ID, models.UpdateAIKeyRequest{Name: ptr("stolen")})
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := f.svc.UpdateAIKey(ctx, tenant.ID, created.ID, models.UpdateAIKeyRequest{
		APIKey:   ptr("sk-next-0000000000wxyz"),
		IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-n...wxyz", updated.APIKeyMasked)
	assert.False(t, updated.IsActive)

	_, err = f.svc.ResolveProviderKey(ctx, tenant.ID, models.ProviderOpenAI)
	assert.ErrorIs(t, err, service.ErrUnavailable, "inactive keys are not used")

	keys, err := f.svc.ListAIKeys(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	assert.ErrorIs(t, f.svc.DeleteAIKey(ctx, "other", created.ID), service.ErrNotFound)
	require.NoError(t, f.svc.DeleteAIKey(ctx, tenant.ID, created.ID))
	keys, err = f.svc.ListAIKeys(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestResolveProviderKeyRecordsUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := f.addProviderKey(t, systemTenant, models.ProviderOpenAI, "sk-resolve-me")

	plain, err := f.svc.ResolveProviderKey(ctx, systemTenant, models.ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-resolve-me", plain)

	stored, err := f.store.GetAIKey(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)
	require.NotNil(t, stored.LastUsedAt)
	assert.Equal(t, epoch, *stored.LastUsedAt)
}

func TestUnreadableProviderKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := f.addProviderKey(t, systemTenant, models.ProviderOpenAI, "sk-abcdefgh12345")
	key.APIKeyEncrypted = "not-a-ciphertext"
	require.NoError(t, f.store.UpdateAIKey(ctx, key))

	_, err := f.svc.ResolveProviderKey(ctx, systemTenant, models.ProviderOpenAI)
	assert.ErrorIs(t, err, service.ErrUnavailable)

	keys, err := f.svc.ListAIKeys(ctx, systemTenant)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "***invalid***", keys[0].APIKeyMasked)
}

func TestTestAIKey(t *testing.T) {
	f := newFixture(t)
	resp := f.svc.TestAIKey(context.Background(), models.TestAIKeyRequest{Provider: "openai", APIKey: "sk"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Key testing is not configured", resp.Message)

	logger, _ := test.NewNullLogger()
	var seen []string
	svc := service.NewDefaultService(f.store, service.Options{
		Clock:  utils.NewFakeClock(epoch),
		Logger: logger,
		Cipher: f.cipher,
		KeyChecker: checkerFunc(func(ctx context.Context, provider, apiKey, baseURL string) error {
			seen = append(seen, provider+"|"+baseURL)
			if apiKey == "bad" {
				return errors.New("401 Unauthorized")
			}
			return nil
		}),
		TokenDuration: time.Hour,
	})

	ok := svc.TestAIKey(context.Background(), models.TestAIKeyRequest{
		Provider: "custom", APIKey: "good", BaseURL: ptr("https://llm.internal/v1"),
	})
	assert.True(t, ok.Success)
	assert.Equal(t, "API key is valid", ok.Message)

	bad := svc.TestAIKey(context.Background(), models.TestAIKeyRequest{Provider: "openai", APIKey: "bad"})
	assert.False(t, bad.Success)
	assert.Equal(t, "Connection failed: 401 Unauthorized", bad.Message)

	assert.Equal(t, []string{"custom|https://llm.internal/v1", "openai|"}, seen)
}
