package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

func (r *PostgresRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	if err := r.db.SelectContext(ctx, &settings, `SELECT * FROM settings ORDER BY key`); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *PostgresRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.GetContext(ctx, &setting, `SELECT * FROM settings WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *PostgresRepository) CreateSetting(ctx context.Context, setting *models.Setting) error {
	if setting.ID == "" {
		setting.ID = uuid.New().String()
	}
	stampUpdated(&setting.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO settings (id, key, value, description, updated_at)
		VALUES (:id, :key, :value, :description, :updated_at)
	`, setting)
	return translateError(err)
}

func (r *PostgresRepository) UpsertSetting(ctx context.Context, setting *models.Setting) error {
	if setting.ID == "" {
		setting.ID = uuid.New().String()
	}
	stampUpdated(&setting.UpdatedAt)

	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO settings (id, key, value, description, updated_at)
		VALUES (:id, :key, :value, :description, :updated_at)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, settings.description),
			updated_at = EXCLUDED.updated_at
		RETURNING id, description
	`, setting)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&setting.ID, &setting.Description); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) DeleteSetting(ctx context.Context, key string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// KPI records
func (r *PostgresRepository) GetKPIProfile(ctx context.Context, subject string) (*models.KPIProfile, error) {
	var profile models.KPIProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT subject, document, updated_at FROM kpi_profiles WHERE subject = $1`, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) SaveKPIProfile(ctx context.Context, profile *models.KPIProfile) error {
	stampUpdated(&profile.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO kpi_profiles (subject, document, updated_at)
		VALUES (:subject, :document, :updated_at)
		ON CONFLICT (subject) DO UPDATE SET document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, profile)
	return err
}

func (r *PostgresRepository) GetKPISetCollection(ctx context.Context, scope string) (*models.KPISetCollection, error) {
	var collection models.KPISetCollection
	err := r.db.GetContext(ctx, &collection,
		`SELECT scope, sets, updated_at FROM kpi_set_collections WHERE scope = $1`, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

func (r *PostgresRepository) SaveKPISetCollection(ctx context.Context, collection *models.KPISetCollection) error {
	stampUpdated(&collection.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO kpi_set_collections (scope, sets, updated_at)
		VALUES (:scope, :sets, :updated_at)
		ON CONFLICT (scope) DO UPDATE SET sets = EXCLUDED.sets,
			updated_at = EXCLUDED.updated_at
	`, collection)
	return err
}
