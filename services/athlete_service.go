package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
	"github.com/arenahub/event-system/utils"
)

type AthleteUpdateInput struct {
	Name      *string     `json:"name"`
	Email     *string     `json:"email"`
	BirthDate *time.Time  `json:"birth_date"`
	Sex       *models.Sex `json:"sex"`
}

type AthleteService interface {
	Create(ctx context.Context, athlete *models.Athlete, currentUserID int) (*models.Athlete, error)
	GetByID(ctx context.Context, id int) (*models.Athlete, error)
	Update(ctx context.Context, id int, input AthleteUpdateInput, currentUserID int) (*models.Athlete, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.Athlete, error)
}

type athleteService struct {
	athleteRepo repositories.AthleteRepository
	teamRepo    repositories.TeamRepository
	profileRepo repositories.ProfileRepository
	now         func() time.Time
}

func NewAthleteService(
	athleteRepo repositories.AthleteRepository,
	teamRepo repositories.TeamRepository,
	profileRepo repositories.ProfileRepository,
) AthleteService {
	return &athleteService{
		athleteRepo: athleteRepo,
		teamRepo:    teamRepo,
		profileRepo: profileRepo,
		now:         time.Now,
	}
}

func (s *athleteService) validateAthlete(athlete *models.Athlete) error {
	if strings.TrimSpace(athlete.Name) == "" {
		return fmt.Errorf("%w: nome do atleta é obrigatório", ErrValidationFailed)
	}
	if !utils.IsValidEmail(athlete.Email) {
		return fmt.Errorf("%w: email inválido", ErrValidationFailed)
	}
	if athlete.BirthDate != nil && athlete.BirthDate.After(s.now()) {
		return fmt.Errorf("%w: data de nascimento no futuro", ErrValidationFailed)
	}
	if athlete.Sex != nil && *athlete.Sex != models.SexMale && *athlete.Sex != models.SexFemale {
		return fmt.Errorf("%w: sexo desconhecido: %s", ErrValidationFailed, *athlete.Sex)
	}
	return nil
}

// canManage reports whether the caller may mutate the athlete record: the
// team's manager, the athlete's own linked profile, or an organizer.
func (s *athleteService) canManage(ctx context.Context, athlete *models.Athlete, currentUserID int) error {
	if athlete.ProfileID != nil && *athlete.ProfileID == currentUserID {
		return nil
	}
	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		return fmt.Errorf("failed to load caller profile: %w", err)
	}
	if profile.Role == models.RoleOrganizer {
		return nil
	}
	if athlete.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *athlete.TeamID)
		if err != nil {
			return fmt.Errorf("failed to load athlete team: %w", err)
		}
		if team.ManagerID == currentUserID {
			return nil
		}
	}
	return ErrForbiddenOperation
}

func (s *athleteService) Create(ctx context.Context, athlete *models.Athlete, currentUserID int) (*models.Athlete, error) {
	athlete.Email = NormalizeEmail(athlete.Email)
	if err := s.validateAthlete(athlete); err != nil {
		return nil, err
	}

	if athlete.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *athlete.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		profile, err := s.profileRepo.GetByID(ctx, currentUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load caller profile: %w", err)
		}
		if team.ManagerID != currentUserID && profile.Role != models.RoleOrganizer {
			return nil, ErrForbiddenOperation
		}
	}

	if err := s.athleteRepo.Create(ctx, athlete); err != nil {
		if errors.Is(err, repositories.ErrAthleteEmailConflict) {
			return nil, ErrAthleteEmailConflict
		}
		return nil, err
	}
	return athlete, nil
}

func (s *athleteService) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	return athlete, nil
}

func (s *athleteService) Update(ctx context.Context, id int, input AthleteUpdateInput, currentUserID int) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if err := s.canManage(ctx, athlete, currentUserID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		athlete.Name = *input.Name
	}
	if input.Email != nil {
		athlete.Email = NormalizeEmail(*input.Email)
	}
	if input.BirthDate != nil {
		athlete.BirthDate = input.BirthDate
	}
	if input.Sex != nil {
		athlete.Sex = input.Sex
	}

	if err := s.validateAthlete(athlete); err != nil {
		return nil, err
	}
	if err := s.athleteRepo.Update(ctx, athlete); err != nil {
		if errors.Is(err, repositories.ErrAthleteEmailConflict) {
			return nil, ErrAthleteEmailConflict
		}
		return nil, err
	}
	return athlete, nil
}

func (s *athleteService) ListByTeam(ctx context.Context, teamID int) ([]models.Athlete, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.athleteRepo.ListByTeam(ctx, teamID)
}
