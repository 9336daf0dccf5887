package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/planning-tool/planner-server/internal/api/testutils"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const thaiHello = "\u0e2a\u0e27\u0e31\u0e2a\u0e14\u0e35"

func guestLogin(t *testing.T, tc *testutils.TestContext, forwardedFor string) models.GuestLoginResponse {
	t.Helper()
	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/guest/login", nil,
		map[string]string{"X-Forwarded-For": forwardedFor})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.GuestLoginResponse
	testutils.DecodeJSON(t, w, &resp)
	return resp
}

func TestGuestLoginLimitsSessionsPerAddress(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	for i := 0; i < 5; i++ {
		resp := guestLogin(t, testCtx, "203.0.113.5")
		assert.True(t, strings.HasPrefix(resp.Username, "Guest_"))
		assert.Equal(t, 10, resp.RemainingUses)
	}

	// a forged leading hop does not hide the address the proxy saw
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/login", nil,
		map[string]string{"X-Forwarded-For": "198.51.100.99, 203.0.113.5"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "RATE_LIMITED", errResp.Code)

	guestLogin(t, testCtx, "203.0.113.6")
}

func TestGuestLoginIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	const peer = "203.0.113.50:40000"
	for i := 0; i < 5; i++ {
		w := testutils.PerformRequestFrom(testCtx.Router, peer, http.MethodPost, "/api/guest/login", nil,
			map[string]string{"X-Forwarded-For": fmt.Sprintf("198.51.100.%d", i)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := testutils.PerformRequestFrom(testCtx.Router, peer, http.MethodPost, "/api/guest/login", nil,
		map[string]string{"X-Forwarded-For": "198.51.100.200"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGuestTranslateFlow(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	session := guestLogin(t, testCtx, "198.51.100.20")

	// no provider key yet
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: thaiHello}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	testCtx.SeedProviderKey(t, testutils.TestSystemTenantID, models.ProviderOpenAI, "sk-guest-key")
	testCtx.Translator.On("Translate", mock.Anything, "sk-guest-key", thaiHello).Return("Hello", nil).Once()

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: thaiHello}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.GuestTranslateResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.Equal(t, "Hello", resp.TranslatedText)
	assert.Equal(t, 1, resp.UsageCount)
	assert.Equal(t, 9, resp.RemainingUses)

	// English passes through without using quota
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: "good morning"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeJSON(t, w, &resp)
	assert.Equal(t, "good morning", resp.TranslatedText)
	assert.Equal(t, 9, resp.RemainingUses)

	testCtx.Translator.On("Translate", mock.Anything, "sk-guest-key", thaiHello).
		Return("", errors.New("rate limited by provider")).Once()
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: thaiHello}, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/status/"+session.SessionID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.GuestStatusResponse
	testutils.DecodeJSON(t, w, &status)
	assert.Equal(t, 1, status.UsageCount)
	assert.True(t, status.IsActive)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: "unknown", Text: thaiHello}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		map[string]string{"text": thaiHello}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestExhaustedSessionIsForbidden(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	session := guestLogin(t, testCtx, "198.51.100.30")
	stored, err := testCtx.Store.GetGuestTrialBySession(context.Background(), session.SessionID)
	require.NoError(t, err)
	stored.UsageCount = stored.MaxUses
	testCtx.Store.PutGuestTrial(*stored)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: thaiHello}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "Translation limit reached. Please register for unlimited access.", errResp.Message)
}

func TestGuestAdminMasksSessionIDs(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	session := guestLogin(t, testCtx, "198.51.100.40")
	testCtx.SeedProviderKey(t, testutils.TestSystemTenantID, models.ProviderOpenAI, "sk-guest-key")
	testCtx.Translator.On("Translate", mock.Anything, "sk-guest-key", thaiHello).Return("Hello", nil).Once()

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/guest/translate",
		models.GuestTranslateRequest{SessionID: session.SessionID, Text: thaiHello}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/trials?active_only=true", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var trials []models.GuestTrialSummary
	testutils.DecodeJSON(t, w, &trials)
	require.Len(t, trials, 1)
	assert.Equal(t, session.SessionID[:16]+"...", trials[0].SessionID)
	assert.NotContains(t, w.Body.String(), session.SessionID)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/translations?session_id="+session.SessionID[:8], nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.GuestTranslationLog
	testutils.DecodeJSON(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, thaiHello, logs[0].OriginalText)
	assert.NotContains(t, w.Body.String(), session.SessionID)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/stats", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.GuestTrialStats
	testutils.DecodeJSON(t, w, &stats)
	assert.Equal(t, 1, stats.TotalTranslations)
	assert.Equal(t, 1, stats.ActiveGuests)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/trials?limit=0", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/trials?active_only=maybe", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
