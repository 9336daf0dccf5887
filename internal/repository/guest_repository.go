package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/planning-tool/planner-server/internal/models"
)

func (r *PostgresRepository) CountActiveGuestTrialsByIP(ctx context.Context, ip string, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM guest_trials WHERE ip_address = $1 AND expires_at > $2`, ip, now)
	return count, err
}

func (r *PostgresRepository) CreateGuestTrial(ctx context.Context, trial *models.GuestTrial) error {
	if trial.ID == "" {
		trial.ID = uuid.New().String()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO guest_trials (id, session_id, ip_address, username, usage_count, max_uses,
			created_at, expires_at, last_used_at)
		VALUES (:id, :session_id, :ip_address, :username, :usage_count, :max_uses,
			:created_at, :expires_at, :last_used_at)
	`, trial)
	return translateError(err)
}

func (r *PostgresRepository) GetGuestTrialBySession(ctx context.Context, sessionID string) (*models.GuestTrial, error) {
	var trial models.GuestTrial
	err := r.db.GetContext(ctx, &trial, `SELECT * FROM guest_trials WHERE session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &trial, nil
}

func (r *PostgresRepository) RecordGuestTranslation(
	ctx context.Context,
	trialID string,
	now time.Time,
	entry *models.GuestTranslationLog,
) (bool, error) {
	applied := false

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE guest_trials SET usage_count = usage_count + 1, last_used_at = $1
			WHERE id = $2 AND usage_count < max_uses AND expires_at > $1`,
			now, trialID)
		if err != nil {
			return err
		}
		if applied, err = rowsAffected(res); err != nil || !applied {
			return err
		}

		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO guest_translation_logs (id, guest_trial_id, session_id, original_text,
				translated_text, detected_language, ip_address, created_at)
			VALUES (:id, :guest_trial_id, :session_id, :original_text,
				:translated_text, :detected_language, :ip_address, :created_at)
		`, entry)
		return err
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Admin queries
func (r *PostgresRepository) GetGuestTrialStats(ctx context.Context, now time.Time) (*models.GuestTrialStats, error) {
	stats := &models.GuestTrialStats{TopTranslatedTexts: []models.TextCount{}}

	if err := r.db.GetContext(ctx, &stats.TotalGuests, `SELECT COUNT(*) FROM guest_trials`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.ActiveGuests,
		`SELECT COUNT(*) FROM guest_trials WHERE expires_at > $1`, now); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.TotalTranslations,
		`SELECT COUNT(*) FROM guest_translation_logs`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.TranslationsToday,
		`SELECT COUNT(*) FROM guest_translation_logs WHERE created_at >= $1`, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &stats.TopTranslatedTexts, `
		SELECT original_text AS text, COUNT(*) AS count FROM guest_translation_logs
		GROUP BY original_text ORDER BY count DESC LIMIT 10`); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *PostgresRepository) ListGuestTrials(ctx context.Context, filter models.GuestTrialFilter) ([]models.GuestTrial, error) {
	query := `SELECT * FROM guest_trials`
	args := []interface{}{}

	if filter.ActiveOnly {
		args = append(args, filter.Now)
		query += fmt.Sprintf(` WHERE expires_at > $%d`, len(args))
	}
	args = append(args, filter.Limit, filter.Skip)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	trials := []models.GuestTrial{}
	if err := r.db.SelectContext(ctx, &trials, query, args...); err != nil {
		return nil, err
	}
	return trials, nil
}

func (r *PostgresRepository) ListGuestTranslationLogs(ctx context.Context, filter models.GuestTranslationFilter) ([]models.GuestTranslationLog, error) {
	query := `SELECT * FROM guest_translation_logs`
	args := []interface{}{}

	if filter.SessionIDPrefix != "" {
		args = append(args, filter.SessionIDPrefix+"%")
		query += fmt.Sprintf(` WHERE session_id LIKE $%d`, len(args))
	}
	args = append(args, filter.Limit, filter.Skip)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	logs := []models.GuestTranslationLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}
