package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
)

// KPISetScope is the collection every KPI set is saved under
const KPISetScope = "default"

// SettingService manages generic settings and the typed KPI records
type SettingService interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	CreateSetting(ctx context.Context, req models.SettingRequest) (*models.Setting, error)
	PutSetting(ctx context.Context, key string, req models.UpdateSettingRequest) (*models.Setting, error)
	DeleteSetting(ctx context.Context, key string) error

	GetKPIData(ctx context.Context, subject string) (*models.KPIProfile, error)
	SaveKPIData(ctx context.Context, req models.SaveKPIDataRequest) (*models.KPIProfile, error)
	GetKPISets(ctx context.Context) ([]models.KPISet, error)
	SaveKPISets(ctx context.Context, sets []models.KPISet) ([]models.KPISet, error)
}

func (s *DefaultService) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing settings: %w", err)
	}
	return settings, nil
}

func (s *DefaultService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error getting setting: %w", err)
	}
	if setting == nil {
		return nil, fmt.Errorf("%w: setting %q not found", ErrNotFound, key)
	}
	return setting, nil
}

func (s *DefaultService) CreateSetting(ctx context.Context, req models.SettingRequest) (*models.Setting, error) {
	setting := &models.Setting{
		ID:          uuid.New().String(),
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
		UpdatedAt:   s.clock.Now(),
	}

	if err := s.repo.CreateSetting(ctx, setting); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: setting %q already exists", ErrConflict, req.Key)
		}
		return nil, fmt.Errorf("error creating setting: %w", err)
	}
	return setting, nil
}

// PutSetting creates the key when it does not exist yet
func (s *DefaultService) PutSetting(ctx context.Context, key string, req models.UpdateSettingRequest) (*models.Setting, error) {
	setting := &models.Setting{
		Key:         key,
		Value:       req.Value,
		Description: req.Description,
		UpdatedAt:   s.clock.Now(),
	}

	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return nil, fmt.Errorf("error saving setting: %w", err)
	}
	return setting, nil
}

func (s *DefaultService) DeleteSetting(ctx context.Context, key string) error {
	deleted, err := s.repo.DeleteSetting(ctx, key)
	if err != nil {
		return fmt.Errorf("error deleting setting: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: setting %q not found", ErrNotFound, key)
	}
	return nil
}

// KPI records

// GetKPIData returns an empty document for subjects never saved
func (s *DefaultService) GetKPIData(ctx context.Context, subject string) (*models.KPIProfile, error) {
	profile, err := s.repo.GetKPIProfile(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("error getting kpi data: %w", err)
	}
	if profile == nil {
		return &models.KPIProfile{
			Subject: subject,
			Document: models.KPIDocument{
				Perspectives: []models.Perspective{},
				Competencies: []models.Competency{},
			},
		}, nil
	}
	return profile, nil
}

func (s *DefaultService) SaveKPIData(ctx context.Context, req models.SaveKPIDataRequest) (*models.KPIProfile, error) {
	if err := validateWeights(req.Document.Perspectives); err != nil {
		return nil, err
	}

	profile := &models.KPIProfile{
		Subject:   req.Subject,
		Document:  req.Document,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.SaveKPIProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("error saving kpi data: %w", err)
	}
	return profile, nil
}

func (s *DefaultService) GetKPISets(ctx context.Context) ([]models.KPISet, error) {
	collection, err := s.repo.GetKPISetCollection(ctx, KPISetScope)
	if err != nil {
		return nil, fmt.Errorf("error getting kpi sets: %w", err)
	}
	if collection == nil {
		return []models.KPISet{}, nil
	}
	return collection.Sets, nil
}

func (s *DefaultService) SaveKPISets(ctx context.Context, sets []models.KPISet) ([]models.KPISet, error) {
	for i := range sets {
		if sets[i].Name == "" {
			return nil, fmt.Errorf("%w: kpi set name is required", ErrValidation)
		}
		if sets[i].ID == "" {
			sets[i].ID = uuid.New().String()
		}
		if sets[i].AssignedTo == nil {
			sets[i].AssignedTo = []string{}
		}
		if err := validateWeights(sets[i].Perspectives); err != nil {
			return nil, err
		}
	}

	collection := &models.KPISetCollection{
		Scope:     KPISetScope,
		Sets:      models.KPISetList(sets),
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.SaveKPISetCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("error saving kpi sets: %w", err)
	}
	return collection.Sets, nil
}

// validateWeights rejects negative weights anywhere in the tree
func validateWeights(perspectives []models.Perspective) error {
	for _, p := range perspectives {
		if p.Weight < 0 {
			return fmt.Errorf("%w: perspective %q has a negative weight", ErrValidation, p.Name)
		}
		for _, k := range p.SubKPIs {
			if k.Weight < 0 {
				return fmt.Errorf("%w: kpi %q has a negative weight", ErrValidation, k.Name)
			}
		}
	}
	return nil
}
