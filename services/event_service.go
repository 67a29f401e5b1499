package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/realtime"
	"github.com/arenahub/event-system/repositories"
	"github.com/arenahub/event-system/storage"
	"golang.org/x/sync/errgroup"
)

type EventService interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event, currentUserID int) error
	UpdateStatus(ctx context.Context, eventID int, to models.EventStatus, currentUserID int) error
	Delete(ctx context.Context, eventID, currentUserID int) error
	UploadLogo(ctx context.Context, eventID, currentUserID int, file io.Reader, contentType string) (*models.Event, error)

	// AutoUpdateEventStatusesByDates advances scheduled events past their
	// start date to in_progress and in-progress events past their end date
	// to finished. Invoked periodically by the scheduler goroutine.
	AutoUpdateEventStatusesByDates(ctx context.Context) error
}

type eventService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.ProfileRepository
	uploader  storage.FileUploader
	hub       *realtime.Hub
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	userRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
	hub *realtime.Hub,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		uploader:  uploader,
		hub:       hub,
		logger:    logger,
	}
}

func validateEvent(event *models.Event) error {
	if event.Name == "" {
		return ErrEventNameRequired
	}
	if event.StartDate.IsZero() || event.EndDate.IsZero() || !event.StartDate.Before(event.EndDate) {
		return fmt.Errorf("%w: start %s, end %s", ErrEventInvalidDateRange,
			event.StartDate.Format(time.RFC3339), event.EndDate.Format(time.RFC3339))
	}
	if event.MinAge != nil && event.MaxAge != nil && *event.MaxAge < *event.MinAge {
		return ErrEventInvalidAgeBounds
	}
	for _, capValue := range []*int{event.CapTotal, event.CapMale, event.CapFemale} {
		if capValue != nil && *capValue <= 0 {
			return ErrEventInvalidCaps
		}
	}
	// Per-sex caps are meaningless outside mixed events.
	if event.Category != models.CategoryMixed && (event.CapMale != nil || event.CapFemale != nil) {
		return ErrEventPerSexCapsNotMixed
	}
	switch event.Category {
	case models.CategoryMale, models.CategoryFemale, models.CategoryMixed:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrValidationFailed, event.Category)
	}
	return nil
}

func isValidEventStatusTransition(current, next models.EventStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.EventStatus][]models.EventStatus{
		models.EventStatusScheduled:  {models.EventStatusInProgress},
		models.EventStatusInProgress: {models.EventStatusFinished},
		models.EventStatusFinished:   {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}

func (s *eventService) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.Status = models.EventStatusScheduled
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	organizer, err := s.userRepo.GetByID(ctx, event.OrganizerID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get organizer %d: %w", event.OrganizerID, err)
	}
	if organizer.Role != models.RoleOrganizer {
		return nil, ErrOrganizerOnly
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	s.populateLogoURL(event)
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for _, event := range events {
		s.populateLogoURL(event)
	}
	return events, nil
}

func (s *eventService) Update(ctx context.Context, event *models.Event, currentUserID int) error {
	existing, err := s.eventRepo.GetByID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event %d: %w", event.ID, err)
	}
	if existing.OrganizerID != currentUserID {
		return ErrOrganizerOnly
	}

	event.OrganizerID = existing.OrganizerID
	event.Status = existing.Status
	event.LogoKey = existing.LogoKey
	if err := validateEvent(event); err != nil {
		return err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return ErrEventNameConflict
		}
		return fmt.Errorf("failed to update event %d: %w", event.ID, err)
	}
	return nil
}

func (s *eventService) UpdateStatus(ctx context.Context, eventID int, to models.EventStatus, currentUserID int) error {
	switch to {
	case models.EventStatusScheduled, models.EventStatusInProgress, models.EventStatusFinished:
	default:
		return ErrEventInvalidStatus
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.OrganizerID != currentUserID {
		return ErrOrganizerOnly
	}
	if !isValidEventStatusTransition(event.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrEventInvalidStatusTransition, event.Status, to)
	}
	if event.Status == to {
		return nil
	}
	return s.transition(ctx, event, to)
}

func (s *eventService) Delete(ctx context.Context, eventID, currentUserID int) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.OrganizerID != currentUserID {
		return ErrOrganizerOnly
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	return nil
}

func (s *eventService) UploadLogo(ctx context.Context, eventID, currentUserID int, file io.Reader, contentType string) (*models.Event, error) {
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

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("events/%d/logo%s", eventID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload event %d logo: %w", eventID, err)
	}

	oldKey := event.LogoKey
	event.LogoKey = &result.Key
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist event %d logo key: %w", eventID, err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous event logo",
				slog.Int("event_id", eventID), slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	s.populateLogoURL(event)
	return event, nil
}

// extensionForContentType maps an image content type onto the file
// extension used in storage keys.
func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	parts := strings.Split(contentType, "/")
	if len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
		return "." + strings.Split(parts[1], "+")[0], nil
	}
	return "", fmt.Errorf("%w: %q", ErrLogoUnsupportedType, contentType)
}

func (s *eventService) AutoUpdateEventStatusesByDates(ctx context.Context) error {
	now := time.Now()

	dueForStart, err := s.eventRepo.ListDueForStart(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list events due for start: %w", err)
	}
	dueForFinish, err := s.eventRepo.ListDueForFinish(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list events due for finish: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, event := range dueForStart {
		g.Go(func() error {
			return s.autoTransition(gctx, event, models.EventStatusInProgress)
		})
	}
	for _, event := range dueForFinish {
		g.Go(func() error {
			return s.autoTransition(gctx, event, models.EventStatusFinished)
		})
	}
	return g.Wait()
}

func (s *eventService) autoTransition(ctx context.Context, event *models.Event, to models.EventStatus) error {
	err := s.transition(ctx, event, to)
	if errors.Is(err, repositories.ErrEventStatusStale) {
		// Another scheduler run or the organizer already moved it.
		s.logger.InfoContext(ctx, "event status already advanced",
			slog.Int("event_id", event.ID), slog.String("to", string(to)))
		return nil
	}
	return err
}

func (s *eventService) transition(ctx context.Context, event *models.Event, to models.EventStatus) error {
	if err := s.eventRepo.UpdateStatus(ctx, event.ID, event.Status, to); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "event status updated",
		slog.Int("event_id", event.ID),
		slog.String("from", string(event.Status)),
		slog.String("to", string(to)))

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.EventRoom(event.ID), realtime.Message{
			Type:   realtime.MessageTypeEventStatus,
			RoomID: realtime.EventRoom(event.ID),
			Payload: map[string]interface{}{
				"event_id": event.ID,
				"status":   to,
			},
		})
	}
	return nil
}

func (s *eventService) populateLogoURL(event *models.Event) {
	if event == nil || event.LogoKey == nil || *event.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*event.LogoKey); url != "" {
		event.LogoURL = &url
	}
}
