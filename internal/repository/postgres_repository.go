package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/planning-tool/planner-server/internal/models"
)

const userColumns = `id, tenant_id, tenant_role, name, email, password_hash, role, position,
	line_manager, status, avatar_url, start_date, end_date, computer, mobile, phone,
	birthday, disc_type, personality_type, created_at, updated_at`

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :tenant_id, :tenant_role, :name, :email, :password_hash, :role, :position,
			:line_manager, :status, :avatar_url, :start_date, :end_date, :computer, :mobile, :phone,
			:birthday, :disc_type, :personality_type, :created_at, :updated_at)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stampCreated(&user.CreatedAt, &user.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, query, user)
	return translateError(err)
}

func (r *PostgresRepository) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	return r.getUser(ctx, "name = $1", name)
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET tenant_id = :tenant_id, tenant_role = :tenant_role, name = :name,
			email = :email, password_hash = :password_hash, role = :role, position = :position,
			line_manager = :line_manager, status = :status, avatar_url = :avatar_url,
			start_date = :start_date, end_date = :end_date, computer = :computer,
			mobile = :mobile, phone = :phone, birthday = :birthday, disc_type = :disc_type,
			personality_type = :personality_type, updated_at = :updated_at
		WHERE id = :id
	`
	stampUpdated(&user.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, query, user)
	return translateError(err)
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// Password reset token methods
func (r *PostgresRepository) ReplacePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, token.UserID); err != nil {
			return err
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO password_reset_tokens (id, user_id, token, expires_at, created_at)
			VALUES (:id, :user_id, :token, :expires_at, :created_at)
		`, token)
		return translateError(err)
	})
}

func (r *PostgresRepository) GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := r.db.GetContext(ctx, &t, `SELECT * FROM password_reset_tokens WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) DeletePasswordResetToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) ResetPassword(ctx context.Context, userID, passwordHash, tokenID string, now time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
			passwordHash, now, userID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = $1`, tokenID)
		return err
	})
}

// stampCreated fills zero timestamps; callers with a clock set them first
func stampCreated(created, updated *time.Time) {
	if created.IsZero() {
		*created = time.Now().UTC()
	}
	if updated.IsZero() {
		*updated = *created
	}
}

func stampUpdated(updated *time.Time) {
	if updated.IsZero() {
		*updated = time.Now().UTC()
	}
}
