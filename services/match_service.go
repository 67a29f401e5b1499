package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/realtime"
	"github.com/arenahub/event-system/repositories"
)

// matchSlotInterval spaces consecutive calendar slots when a generated
// pairing list is laid out on the event calendar.
const matchSlotInterval = time.Hour

type UpdateScoreInput struct {
	MatchID   int  `json:"match_id"`
	HomeScore int  `json:"home_score"`
	AwayScore int  `json:"away_score"`
	Finished  bool `json:"finished"`
}

type MatchService interface {
	// GenerateSchedule asks the database-side gerar_partidas_evento
	// procedure for the pairings, then post-processes them into sequential
	// calendar slots starting at the event start date. The pairing
	// algorithm itself (seeding, byes, round count) is opaque to this
	// service.
	GenerateSchedule(ctx context.Context, eventID, currentUserID int) ([]*models.Match, error)

	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByEvent(ctx context.Context, eventID int, filter repositories.MatchFilter) ([]*models.Match, error)
	UpdateScore(ctx context.Context, input UpdateScoreInput, currentUserID int) (*models.Match, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
	eventRepo repositories.EventRepository
	hub       *realtime.Hub
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	hub *realtime.Hub,
) MatchService {
	return &matchService{
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		hub:       hub,
	}
}

// assignCalendarSlots lays pairings out sequentially from the event start,
// one slot per match in bracket order.
func assignCalendarSlots(matches []*models.Match, start time.Time, interval time.Duration) {
	for i, match := range matches {
		slot := start.Add(time.Duration(i) * interval)
		match.StartsAt = &slot
	}
}

func (s *matchService) GenerateSchedule(ctx context.Context, eventID, currentUserID int) ([]*models.Match, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.OrganizerID != currentUserID {
		return nil, ErrOrganizerOnly
	}
	if event.Status != models.EventStatusScheduled {
		return nil, ErrEventNotScheduled
	}

	if err := s.matchRepo.GenerateForEvent(ctx, eventID); err != nil {
		return nil, err
	}

	matches, err := s.listAll(ctx, eventID)
	if err != nil {
		return nil, err
	}

	assignCalendarSlots(matches, event.StartDate, matchSlotInterval)
	for _, match := range matches {
		if err := s.matchRepo.UpdateSchedule(ctx, match.ID, *match.StartsAt); err != nil {
			return nil, fmt.Errorf("failed to persist slot for match %d: %w", match.ID, err)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.EventRoom(eventID), realtime.Message{
			Type:   realtime.MessageTypeSchedule,
			RoomID: realtime.EventRoom(eventID),
			Payload: map[string]interface{}{
				"event_id":    eventID,
				"match_count": len(matches),
			},
		})
	}
	return matches, nil
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return match, nil
}

func (s *matchService) ListByEvent(ctx context.Context, eventID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByEvent(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
	}
	return matches, nil
}

func (s *matchService) UpdateScore(ctx context.Context, input UpdateScoreInput, currentUserID int) (*models.Match, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, ErrMatchInvalidScore
	}

	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", input.MatchID, err)
	}

	event, err := s.eventRepo.GetByID(ctx, match.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", match.EventID, err)
	}
	if event.OrganizerID != currentUserID {
		return nil, ErrOrganizerOnly
	}

	match.HomeScore = &input.HomeScore
	match.AwayScore = &input.AwayScore
	if input.Finished {
		match.Status = models.MatchStatusFinished
		match.WinnerTeamID = winnerOf(match)
	} else {
		match.Status = models.MatchStatusInProgress
		match.WinnerTeamID = nil
	}

	if err := s.matchRepo.UpdateScore(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchAlreadyFinished) {
			return nil, ErrMatchAlreadyFinished
		}
		return nil, fmt.Errorf("failed to update score for match %d: %w", match.ID, err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.EventRoom(match.EventID), realtime.Message{
			Type:    realtime.MessageTypeScoreUpdate,
			RoomID:  realtime.EventRoom(match.EventID),
			Payload: match,
		})
	}
	return match, nil
}

// winnerOf derives the winning team from a finished score line; draws have
// no winner.
func winnerOf(match *models.Match) *int {
	if match.HomeScore == nil || match.AwayScore == nil {
		return nil
	}
	switch {
	case *match.HomeScore > *match.AwayScore:
		return &match.HomeTeamID
	case *match.AwayScore > *match.HomeScore:
		return &match.AwayTeamID
	}
	return nil
}

func (s *matchService) listAll(ctx context.Context, eventID int) ([]*models.Match, error) {
	all := make([]*models.Match, 0)
	for page := 1; ; page++ {
		batch, err := s.matchRepo.ListByEvent(ctx, eventID, repositories.MatchFilter{Page: page, PerPage: 100})
		if err != nil {
			return nil, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}
