package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

// ContentService manages diagrams and draft headcount
type ContentService interface {
	ListDiagrams(ctx context.Context) ([]models.Diagram, error)
	GetDiagram(ctx context.Context, id string) (*models.Diagram, error)
	CreateDiagram(ctx context.Context, userID string, req models.DiagramRequest) (*models.Diagram, error)
	UpdateDiagram(ctx context.Context, id string, req models.UpdateDiagramRequest) (*models.Diagram, error)
	DeleteDiagram(ctx context.Context, id string) error

	ListDraftHeadcount(ctx context.Context) ([]models.DraftHeadcount, error)
	GetDraftHeadcount(ctx context.Context, id string) (*models.DraftHeadcount, error)
	CreateDraftHeadcount(ctx context.Context, req models.DraftHeadcountRequest) (*models.DraftHeadcount, error)
	UpdateDraftHeadcount(ctx context.Context, id string, req models.UpdateDraftHeadcountRequest) (*models.DraftHeadcount, error)
	DeleteDraftHeadcount(ctx context.Context, id string) error
}

// Diagrams
func (s *DefaultService) ListDiagrams(ctx context.Context) ([]models.Diagram, error) {
	diagrams, err := s.repo.ListDiagrams(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing diagrams: %w", err)
	}
	return diagrams, nil
}

func (s *DefaultService) GetDiagram(ctx context.Context, id string) (*models.Diagram, error) {
	diagram, err := s.repo.GetDiagram(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting diagram: %w", err)
	}
	if diagram == nil {
		return nil, fmt.Errorf("%w: diagram not found", ErrNotFound)
	}
	return diagram, nil
}

func (s *DefaultService) CreateDiagram(ctx context.Context, userID string, req models.DiagramRequest) (*models.Diagram, error) {
	if !json.Valid([]byte(req.DiagramData)) {
		return nil, fmt.Errorf("%w: diagram_data must be valid JSON", ErrValidation)
	}

	now := s.clock.Now()
	diagram := &models.Diagram{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		DiagramData: req.DiagramData,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if userID != "" {
		diagram.CreatedBy = &userID
	}

	if err := s.repo.CreateDiagram(ctx, diagram); err != nil {
		return nil, fmt.Errorf("error creating diagram: %w", err)
	}
	return diagram, nil
}

func (s *DefaultService) UpdateDiagram(ctx context.Context, id string, req models.UpdateDiagramRequest) (*models.Diagram, error) {
	diagram, err := s.GetDiagram(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DiagramData != nil {
		if !json.Valid([]byte(*req.DiagramData)) {
			return nil, fmt.Errorf("%w: diagram_data must be valid JSON", ErrValidation)
		}
		diagram.DiagramData = *req.DiagramData
	}
	setString(&diagram.Name, req.Name)
	setOptional(&diagram.Description, req.Description)
	diagram.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateDiagram(ctx, diagram); err != nil {
		return nil, fmt.Errorf("error updating diagram: %w", err)
	}
	return diagram, nil
}

func (s *DefaultService) DeleteDiagram(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteDiagram(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting diagram: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: diagram not found", ErrNotFound)
	}
	return nil
}

// Draft headcount
func (s *DefaultService) ListDraftHeadcount(ctx context.Context) ([]models.DraftHeadcount, error) {
	items, err := s.repo.ListDraftHeadcount(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing draft headcount: %w", err)
	}
	return items, nil
}

func (s *DefaultService) GetDraftHeadcount(ctx context.Context, id string) (*models.DraftHeadcount, error) {
	item, err := s.repo.GetDraftHeadcount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting draft headcount: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: draft headcount not found", ErrNotFound)
	}
	return item, nil
}

func (s *DefaultService) CreateDraftHeadcount(ctx context.Context, req models.DraftHeadcountRequest) (*models.DraftHeadcount, error) {
	now := s.clock.Now()
	item := &models.DraftHeadcount{
		ID:               uuid.New().String(),
		PositionTitle:    req.PositionTitle,
		Department:       req.Department,
		LineManager:      req.LineManager,
		RequiredSkills:   req.RequiredSkills,
		Description:      req.Description,
		Status:           defaultString(req.Status, "draft"),
		RecruitingStatus: defaultString(req.RecruitingStatus, "not_started"),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateDraftHeadcount(ctx, item); err != nil {
		return nil, fmt.Errorf("error creating draft headcount: %w", err)
	}
	return item, nil
}

func (s *DefaultService) UpdateDraftHeadcount(ctx context.Context, id string, req models.UpdateDraftHeadcountRequest) (*models.DraftHeadcount, error) {
	item, err := s.GetDraftHeadcount(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&item.PositionTitle, req.PositionTitle)
	setString(&item.Status, req.Status)
	setString(&item.RecruitingStatus, req.RecruitingStatus)
	setOptional(&item.Department, req.Department)
	setOptional(&item.LineManager, req.LineManager)
	setOptional(&item.RequiredSkills, req.RequiredSkills)
	setOptional(&item.Description, req.Description)
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateDraftHeadcount(ctx, item); err != nil {
		return nil, fmt.Errorf("error updating draft headcount: %w", err)
	}
	return item, nil
}

func (s *DefaultService) DeleteDraftHeadcount(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteDraftHeadcount(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting draft headcount: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: draft headcount not found", ErrNotFound)
	}
	return nil
}
