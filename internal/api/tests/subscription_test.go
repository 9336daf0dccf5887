package api_test

import (
	"net/http"
	"testing"

	"github.com/planning-tool/planner-server/internal/api/testutils"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSystemTenant(tc *testutils.TestContext) {
	tc.Store.AddPlan(models.Plan{
		ID: "plan-free", Name: "free", DisplayName: "Free",
		MaxUsers: 5, MaxTasks: 50, MaxTeams: 2,
		IsActive: true, IsPublic: true,
	})
	tc.Store.AddTenant(models.Tenant{
		ID: testutils.TestSystemTenantID, Name: "System", Slug: "system",
		Timezone: "UTC", PlanID: "plan-free", SubscriptionStatus: models.SubscriptionActive,
		Settings: models.JSONMap{}, IsActive: true,
	})
}

func TestSubscriptionInfo(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)
	seedSystemTenant(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/subscription/plans", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []models.Plan
	testutils.DecodeJSON(t, w, &plans)
	require.Len(t, plans, 1)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/subscription/plans/plan-none", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/subscription/info", nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info models.SubscriptionInfoResponse
	testutils.DecodeJSON(t, w, &info)
	assert.Equal(t, "plan-free", info.Plan.ID)
	assert.Equal(t, models.UsageLimit{Used: 1, Limit: 5}, info.Usage.Users)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/subscription/info?tenant_id=elsewhere", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/subscription/tenant",
		map[string]string{"name": "System Co"}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var tenant models.Tenant
	testutils.DecodeJSON(t, w, &tenant)
	assert.Equal(t, "System Co", tenant.Name)
	assert.Equal(t, "UTC", tenant.Timezone)
}

func TestAIKeyEndpoints(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)
	seedSystemTenant(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/subscription/ai-keys", models.CreateAIKeyRequest{
		Provider: models.ProviderOpenAI,
		Name:     "Guest translations",
		APIKey:   "sk-proj-abcdef123456",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "sk-proj-abcdef123456")

	var key models.AIKeyResponse
	testutils.DecodeJSON(t, w, &key)
	assert.Equal(t, "sk-p...3456", key.APIKeyMasked)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/subscription/ai-keys", map[string]string{
		"provider": "mistral", "name": "x", "api_key": "y",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/subscription/ai-keys", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var keys []models.AIKeyResponse
	testutils.DecodeJSON(t, w, &keys)
	require.Len(t, keys, 1)
	assert.NotContains(t, w.Body.String(), "sk-proj-abcdef123456")

	// no checker is configured in tests; the outcome is still a 200
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/subscription/ai-keys/test",
		models.TestAIKeyRequest{Provider: "openai", APIKey: "sk-x"}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.TestAIKeyResponse
	testutils.DecodeJSON(t, w, &result)
	assert.False(t, result.Success)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/subscription/ai-keys/"+key.ID, nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/subscription/ai-keys/"+key.ID, nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookmarksAndCollections(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/bookmarks", models.BookmarkRequest{
		Title: "Go blog",
		URL:   "https://go.dev/blog",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bookmark models.Bookmark
	testutils.DecodeJSON(t, w, &bookmark)
	assert.Equal(t, "Uncategorized", bookmark.Category)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/bookmarks", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.BookmarksResponse
	testutils.DecodeJSON(t, w, &list)
	require.Len(t, list.Bookmarks, 1)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/collections",
		models.CollectionRequest{Name: "reading"}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/collections",
		models.CollectionRequest{Name: "reading"}, headers)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/collections/reading/members",
		models.AddCollectionMemberRequest{Username: "Test User", Role: "editor"}, headers)
	assert.Equal(t, http.StatusConflict, w.Code, "the creator is already the owner")

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/collections/reading/members",
		models.AddCollectionMemberRequest{Username: "Test User", Role: "superuser"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/collections/reading", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var collection models.CollectionResponse
	testutils.DecodeJSON(t, w, &collection)
	require.Len(t, collection.Members, 1)
	assert.Equal(t, models.CollectionRoleOwner, collection.Members[0].Role)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/collections/reading", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/collections/reading", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
