package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/planning-tool/planner-server/internal/models"
)

func (r *PostgresRepository) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams := []models.Team{}
	if err := r.db.SelectContext(ctx, &teams, `SELECT * FROM teams ORDER BY name`); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *PostgresRepository) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	err := r.db.GetContext(ctx, &team, `SELECT * FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *PostgresRepository) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	stampCreated(&team.CreatedAt, &team.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO teams (id, tenant_id, name, icon, description, lead_id, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :icon, :description, :lead_id, :created_at, :updated_at)
	`, team)
	return err
}

func (r *PostgresRepository) UpdateTeam(ctx context.Context, team *models.Team) error {
	stampUpdated(&team.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE teams SET name = :name, icon = :icon, description = :description,
			lead_id = :lead_id, updated_at = :updated_at
		WHERE id = :id
	`, team)
	return err
}

func (r *PostgresRepository) DeleteTeam(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// Team membership methods
func (r *PostgresRepository) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	query := `
		SELECT ` + prefixed("u", userColumns) + ` FROM users u
		JOIN team_members tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.name
	`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, teamID); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresRepository) IsTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID)
	return exists, err
}

func (r *PostgresRepository) AddTeamMember(ctx context.Context, member *models.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO team_members (id, team_id, user_id, created_at)
		VALUES (:id, :team_id, :user_id, :created_at)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, member)
	return err
}

func (r *PostgresRepository) RemoveTeamMember(ctx context.Context, teamID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *PostgresRepository) ReplaceTeamMembers(ctx context.Context, teamID string, userIDs []string, now time.Time) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
			return err
		}

		var known []string
		if err := tx.SelectContext(ctx, &known,
			`SELECT id FROM users WHERE id = ANY($1)`, pq.Array(userIDs)); err != nil {
			return err
		}

		for _, userID := range known {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO team_members (id, team_id, user_id, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (team_id, user_id) DO NOTHING`,
				uuid.New().String(), teamID, userID, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
