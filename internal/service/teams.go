package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

// TeamService manages teams and membership
type TeamService interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error)
	UpdateTeam(ctx context.Context, id string, req models.UpdateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, id string) error

	ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error)
	AddTeamMember(ctx context.Context, teamID, userID string) error
	RemoveTeamMember(ctx context.Context, teamID, userID string) error
	SetTeamMembers(ctx context.Context, teamID string, userIDs []string) ([]models.User, error)
}

func (s *DefaultService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	return teams, nil
}

func (s *DefaultService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting team: %w", err)
	}
	if team == nil {
		return nil, fmt.Errorf("%w: team not found", ErrNotFound)
	}
	return team, nil
}

func (s *DefaultService) CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error) {
	now := s.clock.Now()
	team := &models.Team{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		LeadID:      req.LeadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("error creating team: %w", err)
	}
	return team, nil
}

func (s *DefaultService) UpdateTeam(ctx context.Context, id string, req models.UpdateTeamRequest) (*models.Team, error) {
	team, err := s.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&team.Name, req.Name)
	setOptional(&team.Icon, req.Icon)
	setOptional(&team.Description, req.Description)
	setOptional(&team.LeadID, req.LeadID)
	team.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("error updating team: %w", err)
	}
	return team, nil
}

func (s *DefaultService) DeleteTeam(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteTeam(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting team: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: team not found", ErrNotFound)
	}
	return nil
}

func (s *DefaultService) ListTeamMembers(ctx context.Context, teamID string) ([]models.User, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("error listing team members: %w", err)
	}
	return members, nil
}

// AddTeamMember is idempotent for existing members
func (s *DefaultService) AddTeamMember(ctx context.Context, teamID, userID string) error {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	member := &models.TeamMember{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddTeamMember(ctx, member); err != nil {
		return fmt.Errorf("error adding team member: %w", err)
	}
	return nil
}

func (s *DefaultService) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	removed, err := s.repo.RemoveTeamMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("error removing team member: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: user is not a member of this team", ErrNotFound)
	}
	return nil
}

// SetTeamMembers replaces the whole member set; unknown users are skipped
func (s *DefaultService) SetTeamMembers(ctx context.Context, teamID string, userIDs []string) ([]models.User, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceTeamMembers(ctx, teamID, userIDs, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("error replacing team members: %w", err)
	}
	return s.ListTeamMembers(ctx, teamID)
}
