package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/storage"
)

func validTestEvent() *models.Event {
	return &models.Event{
		Name:      "Copa Escolar",
		Category:  models.CategoryMixed,
		StartDate: date(2025, time.June, 1),
		EndDate:   date(2025, time.June, 15),
	}
}

func TestValidateEvent(t *testing.T) {
	t.Run("valid event", func(t *testing.T) {
		assert.NoError(t, validateEvent(validTestEvent()))
	})

	t.Run("name required", func(t *testing.T) {
		event := validTestEvent()
		event.Name = ""
		assert.ErrorIs(t, validateEvent(event), ErrEventNameRequired)
	})

	t.Run("end must follow start", func(t *testing.T) {
		event := validTestEvent()
		event.EndDate = event.StartDate
		assert.ErrorIs(t, validateEvent(event), ErrEventInvalidDateRange)
	})

	t.Run("max age below min age", func(t *testing.T) {
		event := validTestEvent()
		event.MinAge = intPtr(18)
		event.MaxAge = intPtr(15)
		assert.ErrorIs(t, validateEvent(event), ErrEventInvalidAgeBounds)
	})

	t.Run("caps must be positive", func(t *testing.T) {
		event := validTestEvent()
		event.CapTotal = intPtr(0)
		assert.ErrorIs(t, validateEvent(event), ErrEventInvalidCaps)
	})

	t.Run("per-sex caps outside mixed rejected", func(t *testing.T) {
		event := validTestEvent()
		event.Category = models.CategoryFemale
		event.CapFemale = intPtr(5)
		assert.ErrorIs(t, validateEvent(event), ErrEventPerSexCapsNotMixed)
	})

	t.Run("per-sex caps allowed for mixed", func(t *testing.T) {
		event := validTestEvent()
		event.CapMale = intPtr(5)
		event.CapFemale = intPtr(5)
		assert.NoError(t, validateEvent(event))
	})

	t.Run("unknown category", func(t *testing.T) {
		event := validTestEvent()
		event.Category = "juvenil"
		assert.ErrorIs(t, validateEvent(event), ErrValidationFailed)
	})
}

func TestIsValidEventStatusTransition(t *testing.T) {
	tests := []struct {
		current models.EventStatus
		next    models.EventStatus
		want    bool
	}{
		{models.EventStatusScheduled, models.EventStatusScheduled, true},
		{models.EventStatusScheduled, models.EventStatusInProgress, true},
		{models.EventStatusScheduled, models.EventStatusFinished, false},
		{models.EventStatusInProgress, models.EventStatusFinished, true},
		{models.EventStatusInProgress, models.EventStatusScheduled, false},
		{models.EventStatusFinished, models.EventStatusInProgress, false},
		{models.EventStatusFinished, models.EventStatusScheduled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.current)+"_to_"+string(tt.next), func(t *testing.T) {
			assert.Equal(t, tt.want, isValidEventStatusTransition(tt.current, tt.next))
		})
	}
}

type fakeUploader struct {
	uploadedKey  string
	uploadedType string
	deletedKeys  []string
	uploadErr    error
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, _ io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.uploadedKey = key
	u.uploadedType = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deletedKeys = append(u.deletedKeys, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func strPtr(v string) *string { return &v }

func newLogoTestEventService(events *fakeEventRepo, uploader *fakeUploader) *eventService {
	return &eventService{
		eventRepo: events,
		uploader:  uploader,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestEventUploadLogo(t *testing.T) {
	ctx := context.Background()

	newRepo := func(logoKey *string) *fakeEventRepo {
		event := validTestEvent()
		event.ID = 7
		event.OrganizerID = 2
		event.LogoKey = logoKey
		return &fakeEventRepo{events: map[int]*models.Event{7: event}}
	}

	t.Run("uploads and persists the key", func(t *testing.T) {
		events := newRepo(nil)
		uploader := &fakeUploader{}
		svc := newLogoTestEventService(events, uploader)

		event, err := svc.UploadLogo(ctx, 7, 2, strings.NewReader("png-bytes"), "image/png")
		require.NoError(t, err)

		assert.Equal(t, "events/7/logo.png", uploader.uploadedKey)
		assert.Equal(t, "image/png", uploader.uploadedType)
		require.NotNil(t, events.updated)
		require.NotNil(t, events.updated.LogoKey)
		assert.Equal(t, "events/7/logo.png", *events.updated.LogoKey)
		require.NotNil(t, event.LogoURL)
		assert.Equal(t, "https://cdn.test/events/7/logo.png", *event.LogoURL)
	})

	t.Run("replacing a logo removes the previous object", func(t *testing.T) {
		events := newRepo(strPtr("events/7/logo.jpg"))
		uploader := &fakeUploader{}
		svc := newLogoTestEventService(events, uploader)

		_, err := svc.UploadLogo(ctx, 7, 2, strings.NewReader("png-bytes"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, []string{"events/7/logo.jpg"}, uploader.deletedKeys)
	})

	t.Run("only the organizer may upload", func(t *testing.T) {
		events := newRepo(nil)
		svc := newLogoTestEventService(events, &fakeUploader{})

		_, err := svc.UploadLogo(ctx, 7, 99, strings.NewReader("png-bytes"), "image/png")
		assert.ErrorIs(t, err, ErrOrganizerOnly)
		assert.Nil(t, events.updated)
	})

	t.Run("rejects non-image content types", func(t *testing.T) {
		events := newRepo(nil)
		svc := newLogoTestEventService(events, &fakeUploader{})

		_, err := svc.UploadLogo(ctx, 7, 2, strings.NewReader("%PDF-1.7"), "application/pdf")
		assert.ErrorIs(t, err, ErrLogoUnsupportedType)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := newLogoTestEventService(&fakeEventRepo{events: map[int]*models.Event{}}, &fakeUploader{})

		_, err := svc.UploadLogo(ctx, 404, 2, strings.NewReader("png-bytes"), "image/png")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestEventUpdatePreservesLogoKey(t *testing.T) {
	ctx := context.Background()

	existing := validTestEvent()
	existing.ID = 7
	existing.OrganizerID = 2
	existing.LogoKey = strPtr("events/7/logo.png")
	events := &fakeEventRepo{events: map[int]*models.Event{7: existing}}
	svc := newLogoTestEventService(events, &fakeUploader{})

	// Update payloads built from the API carry no logo key.
	update := validTestEvent()
	update.ID = 7
	update.Name = "Copa Escolar 2025"

	require.NoError(t, svc.Update(ctx, update, 2))
	require.NotNil(t, events.updated)
	require.NotNil(t, events.updated.LogoKey)
	assert.Equal(t, "events/7/logo.png", *events.updated.LogoKey)
}
