package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

// Diagram repository methods
func (r *PostgresRepository) ListDiagrams(ctx context.Context) ([]models.Diagram, error) {
	diagrams := []models.Diagram{}
	if err := r.db.SelectContext(ctx, &diagrams, `SELECT * FROM diagrams ORDER BY updated_at DESC`); err != nil {
		return nil, err
	}
	return diagrams, nil
}

func (r *PostgresRepository) GetDiagram(ctx context.Context, id string) (*models.Diagram, error) {
	var diagram models.Diagram
	err := r.db.GetContext(ctx, &diagram, `SELECT * FROM diagrams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &diagram, nil
}

func (r *PostgresRepository) CreateDiagram(ctx context.Context, diagram *models.Diagram) error {
	if diagram.ID == "" {
		diagram.ID = uuid.New().String()
	}
	stampCreated(&diagram.CreatedAt, &diagram.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO diagrams (id, name, description, diagram_data, created_by, created_at, updated_at)
		VALUES (:id, :name, :description, :diagram_data, :created_by, :created_at, :updated_at)
	`, diagram)
	return err
}

func (r *PostgresRepository) UpdateDiagram(ctx context.Context, diagram *models.Diagram) error {
	stampUpdated(&diagram.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE diagrams SET name = :name, description = :description,
			diagram_data = :diagram_data, updated_at = :updated_at
		WHERE id = :id
	`, diagram)
	return err
}

func (r *PostgresRepository) DeleteDiagram(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// Draft headcount repository methods
func (r *PostgresRepository) ListDraftHeadcount(ctx context.Context) ([]models.DraftHeadcount, error) {
	items := []models.DraftHeadcount{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM draft_headcount ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetDraftHeadcount(ctx context.Context, id string) (*models.DraftHeadcount, error) {
	var item models.DraftHeadcount
	err := r.db.GetContext(ctx, &item, `SELECT * FROM draft_headcount WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) CreateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	stampCreated(&d.CreatedAt, &d.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO draft_headcount (id, position_title, department, line_manager, required_skills,
			description, status, recruiting_status, created_at, updated_at)
		VALUES (:id, :position_title, :department, :line_manager, :required_skills,
			:description, :status, :recruiting_status, :created_at, :updated_at)
	`, d)
	return err
}

func (r *PostgresRepository) UpdateDraftHeadcount(ctx context.Context, d *models.DraftHeadcount) error {
	stampUpdated(&d.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE draft_headcount SET position_title = :position_title, department = :department,
			line_manager = :line_manager, required_skills = :required_skills,
			description = :description, status = :status,
			recruiting_status = :recruiting_status, updated_at = :updated_at
		WHERE id = :id
	`, d)
	return err
}

func (r *PostgresRepository) DeleteDraftHeadcount(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM draft_headcount WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}
