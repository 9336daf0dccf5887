package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

// Plan and tenant methods
func (r *PostgresRepository) ListPublicPlans(ctx context.Context) ([]models.Plan, error) {
	plans := []models.Plan{}
	err := r.db.SelectContext(ctx, &plans,
		`SELECT * FROM plans WHERE is_active AND is_public ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PostgresRepository) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.GetContext(ctx, &plan, `SELECT * FROM plans WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PostgresRepository) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.GetContext(ctx, &tenant, `SELECT * FROM tenants WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *PostgresRepository) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	stampUpdated(&tenant.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE tenants SET name = :name, logo_url = :logo_url, timezone = :timezone,
			settings = :settings, updated_at = :updated_at
		WHERE id = :id
	`, tenant)
	return err
}

func (r *PostgresRepository) GetTenantUsage(ctx context.Context, tenantID string) (*models.TenantUsage, error) {
	var usage models.TenantUsage
	err := r.db.GetContext(ctx, &usage, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE tenant_id = $1) AS users,
			(SELECT COUNT(*) FROM tasks WHERE tenant_id = $1) AS tasks,
			(SELECT COUNT(*) FROM teams WHERE tenant_id = $1) AS teams`, tenantID)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// AI provider key methods
func (r *PostgresRepository) ListAIKeys(ctx context.Context, tenantID string) ([]models.AIProviderKey, error) {
	keys := []models.AIProviderKey{}
	err := r.db.SelectContext(ctx, &keys,
		`SELECT * FROM ai_provider_keys WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *PostgresRepository) GetAIKey(ctx context.Context, id string) (*models.AIProviderKey, error) {
	var key models.AIProviderKey
	err := r.db.GetContext(ctx, &key, `SELECT * FROM ai_provider_keys WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *PostgresRepository) GetActiveAIKey(ctx context.Context, tenantID, provider string) (*models.AIProviderKey, error) {
	var key models.AIProviderKey
	err := r.db.GetContext(ctx, &key, `
		SELECT * FROM ai_provider_keys
		WHERE tenant_id = $1 AND provider = $2 AND is_active
		ORDER BY created_at DESC LIMIT 1`, tenantID, provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *PostgresRepository) CreateAIKey(ctx context.Context, key *models.AIProviderKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	stampCreated(&key.CreatedAt, &key.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO ai_provider_keys (id, tenant_id, user_id, provider, name, api_key_encrypted,
			model, base_url, settings, is_active, last_used_at, usage_count, created_at, updated_at)
		VALUES (:id, :tenant_id, :user_id, :provider, :name, :api_key_encrypted,
			:model, :base_url, :settings, :is_active, :last_used_at, :usage_count, :created_at, :updated_at)
	`, key)
	return err
}

func (r *PostgresRepository) UpdateAIKey(ctx context.Context, key *models.AIProviderKey) error {
	stampUpdated(&key.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE ai_provider_keys SET name = :name, api_key_encrypted = :api_key_encrypted,
			model = :model, base_url = :base_url, settings = :settings,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`, key)
	return err
}

func (r *PostgresRepository) DeleteAIKey(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ai_provider_keys WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *PostgresRepository) TouchAIKey(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ai_provider_keys SET usage_count = usage_count + 1, last_used_at = $1
		WHERE id = $2`, now, id)
	return err
}
