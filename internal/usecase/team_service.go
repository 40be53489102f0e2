package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
)

type TeamInput struct {
	Name      string
	ShortName string
	LogoURL   string
}

type TeamService struct {
	teamRepo team.Repository
	idGen    idgen.Generator
	now      func() time.Time
}

func NewTeamService(teamRepo team.Repository, idGen idgen.Generator) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		idGen:    idGen,
		now:      time.Now,
	}
}

func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.List")
	defer span.End()

	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return items, nil
}

func (s *TeamService) Get(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return item, nil
}

func (s *TeamService) Create(ctx context.Context, input TeamInput) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Create")
	defer span.End()

	teamID, err := s.idGen.NewID()
	if err != nil {
		return team.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	now := s.now().UTC()
	item := team.Team{
		ID:        teamID,
		Name:      strings.TrimSpace(input.Name),
		ShortName: strings.ToUpper(strings.TrimSpace(input.ShortName)),
		LogoURL:   strings.TrimSpace(input.LogoURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.teamRepo.Create(ctx, item); err != nil {
		return team.Team{}, fmt.Errorf("create team: %w", err)
	}
	return item, nil
}

func (s *TeamService) Update(ctx context.Context, teamID string, input TeamInput) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Update")
	defer span.End()

	item, err := s.Get(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.ShortName = strings.ToUpper(strings.TrimSpace(input.ShortName))
	item.LogoURL = strings.TrimSpace(input.LogoURL)
	item.UpdatedAt = s.now().UTC()
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.teamRepo.Update(ctx, item)
	if err != nil {
		return team.Team{}, fmt.Errorf("update team: %w", err)
	}
	if !updated {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, item.ID)
	}
	return item, nil
}

func (s *TeamService) Delete(ctx context.Context, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Delete")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	deleted, err := s.teamRepo.Delete(ctx, teamID)
	if errors.Is(err, team.ErrInUse) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return nil
}
