package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/planning-tool/planner-server/internal/api/testutils"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	// Test case 1: Successful registration
	registerReq := models.RegisterRequest{
		Email:    "newuser@example.com",
		Password: "Password123",
		Name:     "New User",
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", registerReq, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	testutils.DecodeJSON(t, w, &user)
	assert.Equal(t, "newuser@example.com", user.Email)
	assert.Equal(t, "member", user.Role)
	assert.NotContains(t, w.Body.String(), "Password123")

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", registerReq, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "CONFLICT", errResp.Code)
	assert.Equal(t, "email already registered", errResp.Message)

	// Test case 3: Invalid request (missing required fields)
	invalidReq := models.RegisterRequest{
		Email: "invalid@example.com",
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", invalidReq, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	// Test case 1: Successful login
	loginReq := models.LoginRequest{
		Email:    testutils.TestUserEmail,
		Password: testutils.TestUserPassword,
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var token models.TokenResponse
	testutils.DecodeJSON(t, w, &token)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, 3600, token.ExpiresIn)
	require.NotEmpty(t, token.AccessToken)

	// The issued token opens protected routes
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/auth/me", nil, testutils.AuthHeaders(token.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var me models.User
	testutils.DecodeJSON(t, w, &me)
	assert.Equal(t, testCtx.TestUserID, me.ID)

	// Test case 2: Wrong password
	loginReq.Password = "wrongpassword"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: Unknown email gets the same answer
	loginReq.Email = "nobody@example.com"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "incorrect email or password", errResp.Message)
}

func TestPasswordReset(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	// Unknown addresses get the same response as known ones
	for _, email := range []string{"ghost@example.com", testutils.TestUserEmail} {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/forgot-password",
			models.ForgotPasswordRequest{Email: email}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var msg models.MessageResponse
		testutils.DecodeJSON(t, w, &msg)
		assert.Equal(t, "If an account exists with this email, a password reset link has been sent.", msg.Message)
	}

	resetToken := testCtx.Store.ResetTokenFor(testCtx.TestUserID)
	require.NotEmpty(t, resetToken)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/reset-password",
		models.ResetPasswordRequest{Token: "bogus", NewPassword: "brandnew"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/reset-password",
		models.ResetPasswordRequest{Token: resetToken, NewPassword: "brandnew"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The token is single use
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/reset-password",
		models.ResetPasswordRequest{Token: resetToken, NewPassword: "another"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: testutils.TestUserEmail, Password: "brandnew"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: testutils.TestUserEmail, Password: testutils.TestUserPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": testCtx.TestUserID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"missing header": nil,
		"wrong scheme":   {"Authorization": "Basic " + testCtx.TestUserJWT},
		"garbage token":  testutils.AuthHeaders("not.a.jwt"),
		"wrong secret":   testutils.AuthHeaders(otherSecret),
		"expired": testutils.AuthHeaders(testutils.SignToken(t, jwt.MapClaims{
			"sub": testCtx.TestUserID,
			"exp": time.Now().Add(-time.Minute).Unix(),
		})),
		"no subject": testutils.AuthHeaders(testutils.SignToken(t, jwt.MapClaims{"email": "x@example.com"})),
	}

	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/auth/me", nil, headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	// Scheme is case-insensitive
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/auth/me", nil,
		map[string]string{"Authorization": "bearer " + testCtx.TestUserJWT})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	member := testutils.SignToken(t, jwt.MapClaims{
		"sub":         testCtx.TestUserID,
		"role":        "member",
		"tenant_role": "member",
		"tenant_id":   testutils.TestSystemTenantID,
	})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/stats", nil, testutils.AuthHeaders(member))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tenantAdmin := testutils.SignToken(t, jwt.MapClaims{
		"sub":         testCtx.TestUserID,
		"role":        "member",
		"tenant_role": "admin",
	})
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/guest/admin/stats", nil, testutils.AuthHeaders(tenantAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndRoot(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(t, testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Planning Tool API","status":"running"}`, w.Body.String())

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"connected"}`, w.Body.String())

	testCtx.Store.PingErr = errors.New("connection refused")
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","database":"disconnected"}`, w.Body.String())
}
