package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
	"github.com/arenahub/event-system/storage"
)

type TeamService interface {
	Create(ctx context.Context, team *models.Team, currentUserID int) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Update(ctx context.Context, team *models.Team, currentUserID int) error
	Delete(ctx context.Context, teamID, currentUserID int) error
	UploadLogo(ctx context.Context, teamID, currentUserID int, file io.Reader, contentType string) (*models.Team, error)

	// AddAthleteToRoster runs the full gate: roster lock, the three
	// eligibility checks against a fresh snapshot, then the transactional
	// insert that re-validates the caps.
	AddAthleteToRoster(ctx context.Context, eventID, teamID, athleteID, currentUserID int) (*models.RosterEntry, error)
	RemoveAthleteFromRoster(ctx context.Context, eventID, teamID, athleteID, currentUserID int) error
	ListRoster(ctx context.Context, eventID, teamID int) ([]models.Athlete, error)
}

type teamService struct {
	teamRepo    repositories.TeamRepository
	eventRepo   repositories.EventRepository
	athleteRepo repositories.AthleteRepository
	rosterRepo  repositories.RosterRepository
	userRepo    repositories.ProfileRepository
	uploader    storage.FileUploader
	now         func() time.Time
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
	athleteRepo repositories.AthleteRepository,
	rosterRepo repositories.RosterRepository,
	userRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		teamRepo:    teamRepo,
		eventRepo:   eventRepo,
		athleteRepo: athleteRepo,
		rosterRepo:  rosterRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		now:         time.Now,
	}
}

func (s *teamService) Create(ctx context.Context, team *models.Team, currentUserID int) (*models.Team, error) {
	if strings.TrimSpace(team.Name) == "" {
		return nil, ErrTeamNameRequired
	}

	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}
	if user.Role != models.RoleManager && user.Role != models.RoleOrganizer {
		return nil, ErrForbiddenOperation
	}

	team.ManagerID = currentUserID
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	athletes, err := s.athleteRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team athletes: %w", err)
	}
	team.Athletes = athletes

	if team.LogoKey != nil && *team.LogoKey != "" && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*team.LogoKey); url != "" {
			team.LogoURL = &url
		}
	}
	return team, nil
}

func (s *teamService) Update(ctx context.Context, team *models.Team, currentUserID int) error {
	existing, err := s.teamRepo.GetByID(ctx, team.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", team.ID, err)
	}
	if existing.ManagerID != currentUserID {
		return ErrManagerActionForbidden
	}
	if strings.TrimSpace(team.Name) == "" {
		return ErrTeamNameRequired
	}

	team.ManagerID = existing.ManagerID
	team.LogoKey = existing.LogoKey
	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to update team %d: %w", team.ID, err)
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, currentUserID int, file io.Reader, contentType string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.ManagerID != currentUserID {
		return nil, ErrManagerActionForbidden
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("teams/%d/logo%s", teamID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team %d logo: %w", teamID, err)
	}

	oldKey := team.LogoKey
	team.LogoKey = &result.Key
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to persist team %d logo key: %w", teamID, err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		// Best effort: the new logo is already live.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	if url := s.uploader.GetPublicURL(*team.LogoKey); url != "" {
		team.LogoURL = &url
	}
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.ManagerID != currentUserID {
		return ErrManagerActionForbidden
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) AddAthleteToRoster(ctx context.Context, eventID, teamID, athleteID, currentUserID int) (*models.RosterEntry, error) {
	event, team, err := s.loadEventAndTeam(ctx, eventID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRosterAccess(event, team, currentUserID); err != nil {
		return nil, err
	}

	athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to get athlete %d: %w", athleteID, err)
	}

	// Advisory pass over a fresh snapshot. The cap counts run again inside
	// the insert transaction; this pass exists to surface every failure at
	// once instead of one constraint error.
	roster, err := s.rosterRepo.ListByEventAndTeam(ctx, eventID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster snapshot: %w", err)
	}
	if failures := ValidateAthlete(roster, athlete, event); len(failures) > 0 {
		messages := make([]string, len(failures))
		for i, f := range failures {
			messages[i] = f.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(messages, "; "))
	}

	entry := &models.RosterEntry{
		EventID:   eventID,
		TeamID:    teamID,
		AthleteID: athleteID,
	}
	if err := s.rosterRepo.Add(ctx, entry, event); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRosterCapExceeded):
			return nil, ErrRosterCapExceeded
		case errors.Is(err, repositories.ErrRosterConflict):
			return nil, ErrRosterConflict
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrAthleteNotFound):
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to add athlete to roster: %w", err)
	}
	entry.Athlete = athlete
	return entry, nil
}

func (s *teamService) RemoveAthleteFromRoster(ctx context.Context, eventID, teamID, athleteID, currentUserID int) error {
	event, team, err := s.loadEventAndTeam(ctx, eventID, teamID)
	if err != nil {
		return err
	}
	if err := s.checkRosterAccess(event, team, currentUserID); err != nil {
		return err
	}

	if err := s.rosterRepo.Remove(ctx, eventID, teamID, athleteID); err != nil {
		if errors.Is(err, repositories.ErrRosterEntryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove athlete from roster: %w", err)
	}
	return nil
}

func (s *teamService) ListRoster(ctx context.Context, eventID, teamID int) ([]models.Athlete, error) {
	roster, err := s.rosterRepo.ListByEventAndTeam(ctx, eventID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	return roster, nil
}

func (s *teamService) loadEventAndTeam(ctx context.Context, eventID, teamID int) (*models.Event, *models.Team, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return event, team, nil
}

func (s *teamService) checkRosterAccess(event *models.Event, team *models.Team, currentUserID int) error {
	isOrganizer := currentUserID == event.OrganizerID
	if !isOrganizer && currentUserID != team.ManagerID {
		return ErrForbiddenOperation
	}
	if lock := CanModifyRoster(event, isOrganizer, s.now()); !lock.Allowed {
		return fmt.Errorf("%w: %s", ErrRosterLocked, lock.Message)
	}
	return nil
}
