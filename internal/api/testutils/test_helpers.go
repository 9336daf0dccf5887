package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/api"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/secrets"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestJWTSecret      = "test-secret-key"
	TestSystemTenantID = "system-tenant"
	TestUserEmail      = "testuser@example.com"
	TestUserPassword   = "testpassword"

	// TestProxyIP is the only proxy whose X-Forwarded-For the test router honours
	TestProxyIP   = "192.0.2.1"
	TestProxyAddr = TestProxyIP + ":1234"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Store       *MemoryStore
	Service     service.Service
	Translator  *MockTranslator
	Cipher      *secrets.Cipher
	LogHook     *test.Hook
	JWTSecret   []byte
	TestUserID  string
	TestUserJWT string
}

// MockTranslator is a testify mock of translate.Translator
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, apiKey, text string) (string, error) {
	args := m.Called(ctx, apiKey, text)
	return args.String(0), args.Error(1)
}

// SetupTestContext wires the real handler and service over a MemoryStore.
// The test user is a platform admin of the system tenant.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	store := NewMemoryStore()
	translator := &MockTranslator{}
	cipher := secrets.NewCipher(TestJWTSecret)

	svc := service.NewDefaultService(store, service.Options{
		JWTSecret:     TestJWTSecret,
		TokenDuration: time.Hour,
		Guest: service.GuestLimits{
			MaxUses:          10,
			SessionTTL:       24 * time.Hour,
			MaxSessionsPerIP: 5,
			SystemTenantID:   TestSystemTenantID,
		},
		Logger:     logger,
		Translator: translator,
		Cipher:     cipher,
	})

	handler := api.NewHandler(svc, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	if err := router.SetTrustedProxies([]string{TestProxyIP}); err != nil {
		t.Fatalf("failed to set trusted proxies: %v", err)
	}
	router.Use(api.RequestLogger(logger), api.SecretMiddleware(TestJWTSecret))
	handler.SetupRoutes(router)

	userID, token := createTestUser(t, store)

	return &TestContext{
		Router:      router,
		Store:       store,
		Service:     svc,
		Translator:  translator,
		Cipher:      cipher,
		LogHook:     hook,
		JWTSecret:   []byte(TestJWTSecret),
		TestUserID:  userID,
		TestUserJWT: token,
	}
}

// CleanupTestContext verifies the translator expectations of the test
func CleanupTestContext(t *testing.T, tc *TestContext) {
	tc.Translator.AssertExpectations(t)
}

func createTestUser(t *testing.T, store *MemoryStore) (string, string) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashedPassword)
	tenantID := TestSystemTenantID

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		TenantID:     &tenantID,
		TenantRole:   "owner",
		Email:        TestUserEmail,
		Name:         "Test User",
		PasswordHash: &hash,
		Role:         "admin",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateUser(context.Background(), user), "Failed to create test user")

	return user.ID, SignToken(t, jwt.MapClaims{
		"sub":         user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"role":        user.Role,
		"tenant_role": user.TenantRole,
		"tenant_id":   tenantID,
	})
}

// SignToken signs claims with the test secret, adding iat and a one hour exp
// unless they are set.
func SignToken(t *testing.T, claims jwt.MapClaims) string {
	now := time.Now()
	if _, ok := claims["iat"]; !ok {
		claims["iat"] = now.Unix()
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = now.Add(time.Hour).Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	require.NoError(t, err, "Failed to generate JWT token")
	return token
}

// SeedProviderKey stores an active encrypted key for the tenant
func (tc *TestContext) SeedProviderKey(t *testing.T, tenantID, provider, plain string) string {
	encrypted, err := tc.Cipher.Encrypt(plain)
	require.NoError(t, err)

	now := time.Now().UTC()
	key := &models.AIProviderKey{
		TenantID:        tenantID,
		Provider:        provider,
		Name:            provider + " key",
		APIKeyEncrypted: encrypted,
		Settings:        models.JSONMap{},
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, tc.Store.CreateAIKey(context.Background(), key))
	return key.ID
}

// PerformRequest executes an HTTP request against the router as if it
// arrived through the trusted test proxy
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	return PerformRequestFrom(r, TestProxyAddr, method, path, body, headers)
}

// PerformRequestFrom executes an HTTP request whose peer is remoteAddr
func PerformRequestFrom(r http.Handler, remoteAddr, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.RemoteAddr = remoteAddr
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals a recorded response body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}
