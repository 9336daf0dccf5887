package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/planning-tool/planner-server/internal/api/testutils"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/secrets"
	"github.com/planning-tool/planner-server/internal/service"
	"github.com/planning-tool/planner-server/internal/utils"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// opencensus, pulled in by genai, starts its stats worker at init
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const systemTenant = "system-tenant"

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *service.DefaultService
	store      *testutils.MemoryStore
	clock      *utils.FakeClock
	translator *testutils.MockTranslator
	cipher     *secrets.Cipher
	logs       *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	f := &fixture{
		store:      testutils.NewMemoryStore(),
		clock:      utils.NewFakeClock(epoch),
		translator: &testutils.MockTranslator{},
		cipher:     secrets.NewCipher("service-test-secret"),
		logs:       hook,
	}
	f.svc = service.NewDefaultService(f.store, service.Options{
		JWTSecret: "service-test-secret",
		Guest: service.GuestLimits{
			MaxUses:          10,
			SessionTTL:       24 * time.Hour,
			MaxSessionsPerIP: 5,
			SystemTenantID:   systemTenant,
		},
		Clock:      f.clock,
		Logger:     logger,
		Translator: f.translator,
		Cipher:     f.cipher,
	})
	t.Cleanup(func() { f.translator.AssertExpectations(t) })
	return f
}

func (f *fixture) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		Name:       name,
		Email:      name + "@example.com",
		Role:       "member",
		TenantRole: "member",
		Status:     "active",
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) addProviderKey(t *testing.T, tenantID, provider, plain string) *models.AIProviderKey {
	t.Helper()
	encrypted, err := f.cipher.Encrypt(plain)
	require.NoError(t, err)

	key := &models.AIProviderKey{
		TenantID:        tenantID,
		Provider:        provider,
		Name:            provider,
		APIKeyEncrypted: encrypted,
		Settings:        models.JSONMap{},
		IsActive:        true,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	require.NoError(t, f.store.CreateAIKey(context.Background(), key))
	return key
}
