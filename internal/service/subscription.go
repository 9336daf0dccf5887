package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/secrets"
	"golang.org/x/sync/errgroup"
)

// SubscriptionService exposes plans, tenant details and AI provider keys
type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	GetSubscriptionInfo(ctx context.Context, tenantID string) (*models.SubscriptionInfoResponse, error)
	UpdateTenant(ctx context.Context, tenantID string, req models.UpdateTenantRequest) (*models.Tenant, error)

	ListAIKeys(ctx context.Context, tenantID string) ([]models.AIKeyResponse, error)
	CreateAIKey(ctx context.Context, tenantID, userID string, req models.CreateAIKeyRequest) (*models.AIKeyResponse, error)
	UpdateAIKey(ctx context.Context, tenantID, id string, req models.UpdateAIKeyRequest) (*models.AIKeyResponse, error)
	DeleteAIKey(ctx context.Context, tenantID, id string) error
	TestAIKey(ctx context.Context, req models.TestAIKeyRequest) *models.TestAIKeyResponse
	ResolveProviderKey(ctx context.Context, tenantID, provider string) (string, error)
}

func (s *DefaultService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.ListPublicPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing plans: %w", err)
	}
	return plans, nil
}

func (s *DefaultService) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan not found", ErrNotFound)
	}
	return plan, nil
}

func (s *DefaultService) getTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error getting tenant: %w", err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant not found", ErrNotFound)
	}
	return tenant, nil
}

// GetSubscriptionInfo loads the tenant's plan and usage counts concurrently
func (s *DefaultService) GetSubscriptionInfo(ctx context.Context, tenantID string) (*models.SubscriptionInfoResponse, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var (
		plan  *models.Plan
		usage *models.TenantUsage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, err = s.GetPlan(gctx, tenant.PlanID)
		return err
	})
	g.Go(func() error {
		var err error
		if usage, err = s.repo.GetTenantUsage(gctx, tenant.ID); err != nil {
			return fmt.Errorf("error counting tenant usage: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &models.SubscriptionInfoResponse{Tenant: tenant, Plan: plan}
	resp.Usage.Users = models.UsageLimit{Used: usage.Users, Limit: plan.MaxUsers}
	resp.Usage.Tasks = models.UsageLimit{Used: usage.Tasks, Limit: plan.MaxTasks}
	resp.Usage.Teams = models.UsageLimit{Used: usage.Teams, Limit: plan.MaxTeams}
	return resp, nil
}

func (s *DefaultService) UpdateTenant(ctx context.Context, tenantID string, req models.UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	setString(&tenant.Name, req.Name)
	setString(&tenant.Timezone, req.Timezone)
	setOptional(&tenant.LogoURL, req.LogoURL)
	if req.Settings != nil {
		tenant.Settings = req.Settings
	}
	tenant.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("error updating tenant: %w", err)
	}
	return tenant, nil
}

// AI provider keys

func (s *DefaultService) ListAIKeys(ctx context.Context, tenantID string) ([]models.AIKeyResponse, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", ErrValidation)
	}

	keys, err := s.repo.ListAIKeys(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error listing ai keys: %w", err)
	}

	out := make([]models.AIKeyResponse, 0, len(keys))
	for i := range keys {
		out = append(out, s.aiKeyResponse(&keys[i]))
	}
	return out, nil
}

func (s *DefaultService) CreateAIKey(ctx context.Context, tenantID, userID string, req models.CreateAIKeyRequest) (*models.AIKeyResponse, error) {
	if _, err := s.getTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("error encrypting api key: %w", err)
	}

	now := s.clock.Now()
	key := &models.AIProviderKey{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Provider:        req.Provider,
		Name:            req.Name,
		APIKeyEncrypted: encrypted,
		Model:           req.Model,
		BaseURL:         req.BaseURL,
		Settings:        req.Settings,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if userID != "" {
		key.UserID = &userID
	}
	if key.Settings == nil {
		key.Settings = models.JSONMap{}
	}

	if err := s.repo.CreateAIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("error creating ai key: %w", err)
	}

	resp := s.aiKeyResponse(key)
	return &resp, nil
}

func (s *DefaultService) getTenantAIKey(ctx context.Context, tenantID, id string) (*models.AIProviderKey, error) {
	key, err := s.repo.GetAIKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting ai key: %w", err)
	}
	if key == nil || (tenantID != "" && key.TenantID != tenantID) {
		return nil, fmt.Errorf("%w: api key not found", ErrNotFound)
	}
	return key, nil
}

func (s *DefaultService) UpdateAIKey(ctx context.Context, tenantID, id string, req models.UpdateAIKeyRequest) (*models.AIKeyResponse, error) {
	key, err := s.getTenantAIKey(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.APIKey != nil {
		encrypted, err := s.cipher.Encrypt(*req.APIKey)
		if err != nil {
			return nil, fmt.Errorf("error encrypting api key: %w", err)
		}
		key.APIKeyEncrypted = encrypted
	}
	setString(&key.Name, req.Name)
	setOptional(&key.Model, req.Model)
	setOptional(&key.BaseURL, req.BaseURL)
	if req.Settings != nil {
		key.Settings = req.Settings
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}
	key.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateAIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("error updating ai key: %w", err)
	}

	resp := s.aiKeyResponse(key)
	return &resp, nil
}

func (s *DefaultService) DeleteAIKey(ctx context.Context, tenantID, id string) error {
	if _, err := s.getTenantAIKey(ctx, tenantID, id); err != nil {
		return err
	}
	if _, err := s.repo.DeleteAIKey(ctx, id); err != nil {
		return fmt.Errorf("error deleting ai key: %w", err)
	}
	return nil
}

// TestAIKey reports the outcome in the response body, never as an error
func (s *DefaultService) TestAIKey(ctx context.Context, req models.TestAIKeyRequest) *models.TestAIKeyResponse {
	if s.keyChecker == nil {
		return &models.TestAIKeyResponse{Success: false, Message: "Key testing is not configured"}
	}

	baseURL := ""
	if req.BaseURL != nil {
		baseURL = *req.BaseURL
	}

	if err := s.keyChecker.CheckKey(ctx, req.Provider, req.APIKey, baseURL); err != nil {
		s.logger.WithError(err).WithField("provider", req.Provider).Info("api key test failed")
		return &models.TestAIKeyResponse{Success: false, Message: fmt.Sprintf("Connection failed: %v", err)}
	}
	return &models.TestAIKeyResponse{Success: true, Message: "API key is valid"}
}

// ResolveProviderKey decrypts the tenant's active key for provider and
// records the use. A missing or unreadable key makes the feature unavailable.
func (s *DefaultService) ResolveProviderKey(ctx context.Context, tenantID, provider string) (string, error) {
	key, err := s.repo.GetActiveAIKey(ctx, tenantID, provider)
	if err != nil {
		return "", fmt.Errorf("error getting provider key: %w", err)
	}
	if key == nil {
		return "", fmt.Errorf("%w: translation service not configured", ErrUnavailable)
	}

	plain, err := s.cipher.Decrypt(key.APIKeyEncrypted)
	if err != nil {
		s.logger.WithField("key_id", key.ID).Error("stored provider key could not be decrypted")
		return "", fmt.Errorf("%w: translation service not configured", ErrUnavailable)
	}

	if err := s.repo.TouchAIKey(ctx, key.ID, s.clock.Now()); err != nil {
		s.logger.WithError(err).Warn("failed to record provider key usage")
	}
	return plain, nil
}

func (s *DefaultService) aiKeyResponse(key *models.AIProviderKey) models.AIKeyResponse {
	masked := "***invalid***"
	if plain, err := s.cipher.Decrypt(key.APIKeyEncrypted); err == nil {
		masked = secrets.Mask(plain)
	}

	return models.AIKeyResponse{
		ID:           key.ID,
		TenantID:     key.TenantID,
		Provider:     key.Provider,
		Name:         key.Name,
		APIKeyMasked: masked,
		Model:        key.Model,
		BaseURL:      key.BaseURL,
		Settings:     key.Settings,
		IsActive:     key.IsActive,
		LastUsedAt:   key.LastUsedAt,
		UsageCount:   key.UsageCount,
		CreatedAt:    key.CreatedAt,
	}
}
