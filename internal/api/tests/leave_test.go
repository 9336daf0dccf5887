package api_test

import (
	"net/http"
	"testing"

	"github.com/planning-tool/planner-server/internal/api/testutils"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getBalance(t *testing.T, tc *testutils.TestContext, userID string) models.LeaveBalanceResponse {
	t.Helper()
	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/leave-balances/"+userID, nil, testutils.AuthHeaders(tc.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var b models.LeaveBalanceResponse
	testutils.DecodeJSON(t, w, &b)
	return b
}

func TestLeaveApprovalAdjustsBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	days := 1.5
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leave-requests", models.CreateLeaveRequest{
		UserID:    testCtx.TestUserID,
		LeaveType: models.LeaveTypeAnnual,
		StartDate: "2025-04-01",
		EndDate:   "2025-04-02",
		Days:      &days,
		Reason:    "moving house",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.LeaveRequest
	testutils.DecodeJSON(t, w, &created)
	assert.Equal(t, models.LeaveStatusPending, created.Status)
	assert.Equal(t, "Test User", created.UserName)

	b := getBalance(t, testCtx, testCtx.TestUserID)
	assert.Equal(t, 15.0, b.AnnualRemaining)

	approve := map[string]string{"status": models.LeaveStatusApproved, "reviewed_by": testCtx.TestUserID}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/"+created.ID, approve, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b = getBalance(t, testCtx, testCtx.TestUserID)
	assert.Equal(t, 1.5, b.AnnualUsed)
	assert.Equal(t, 13.5, b.AnnualRemaining)

	// approving twice does not debit twice
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/"+created.ID, approve, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.5, getBalance(t, testCtx, testCtx.TestUserID).AnnualUsed)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/"+created.ID,
		map[string]string{"leave_type": models.LeaveTypeSick}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0.0, getBalance(t, testCtx, testCtx.TestUserID).SickUsed)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/"+created.ID,
		map[string]string{"status": models.LeaveStatusRejected}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, getBalance(t, testCtx, testCtx.TestUserID).AnnualUsed)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/leave-requests?status=rejected&user_id="+testCtx.TestUserID, nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.LeaveRequest
	testutils.DecodeJSON(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestLeaveRequestErrors(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leave-requests", models.CreateLeaveRequest{
		UserID:    testCtx.TestUserID,
		LeaveType: "sabbatical",
		StartDate: "2025-04-01",
		EndDate:   "2025-04-01",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leave-requests", map[string]string{"leave_type": "annual"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/missing",
		map[string]string{"status": "approved"}, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/leave-requests/missing", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/leave-balances/nobody", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/leave-requests", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteApprovedLeaveRestoresBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/leave-requests", models.CreateLeaveRequest{
		UserID:    testCtx.TestUserID,
		LeaveType: models.LeaveTypeSick,
		StartDate: "2025-04-07",
		EndDate:   "2025-04-09",
	}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.LeaveRequest
	testutils.DecodeJSON(t, w, &created)
	assert.Equal(t, 3.0, created.Days)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/leave-requests/"+created.ID,
		map[string]string{"status": models.LeaveStatusApproved}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.0, getBalance(t, testCtx, testCtx.TestUserID).SickRemaining)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/leave-requests/"+created.ID, nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, getBalance(t, testCtx, testCtx.TestUserID).SickRemaining)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/leave-balances", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var balances []models.LeaveBalanceResponse
	testutils.DecodeJSON(t, w, &balances)
	assert.Len(t, balances, 1)
}
