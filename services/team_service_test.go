package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
)

type fakeEventRepo struct {
	events  map[int]*models.Event
	updated *models.Event
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error { return nil }

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	r.updated = event
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id int, from, to models.EventStatus) error {
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int) error { return nil }

func (r *fakeEventRepo) List(_ context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) ListDueForStart(_ context.Context, now time.Time) ([]*models.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) ListDueForFinish(_ context.Context, now time.Time) ([]*models.Event, error) {
	return nil, nil
}

type fakeAthleteRepo struct {
	athletes map[int]*models.Athlete
}

func (r *fakeAthleteRepo) Create(_ context.Context, athlete *models.Athlete) error { return nil }

func (r *fakeAthleteRepo) GetByID(_ context.Context, id int) (*models.Athlete, error) {
	athlete, ok := r.athletes[id]
	if !ok {
		return nil, repositories.ErrAthleteNotFound
	}
	return athlete, nil
}

func (r *fakeAthleteRepo) GetByEmail(_ context.Context, email string) (*models.Athlete, error) {
	return nil, repositories.ErrAthleteNotFound
}

func (r *fakeAthleteRepo) Update(_ context.Context, athlete *models.Athlete) error { return nil }

func (r *fakeAthleteRepo) ListByTeam(_ context.Context, teamID int) ([]models.Athlete, error) {
	return nil, nil
}

type fakeRosterRepo struct {
	roster []models.Athlete
	added  []*models.RosterEntry
	addErr error
}

func (r *fakeRosterRepo) Add(_ context.Context, entry *models.RosterEntry, _ *models.Event) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.added = append(r.added, entry)
	return nil
}

func (r *fakeRosterRepo) Remove(_ context.Context, eventID, teamID, athleteID int) error {
	return nil
}

func (r *fakeRosterRepo) ListByEventAndTeam(_ context.Context, eventID, teamID int) ([]models.Athlete, error) {
	return r.roster, nil
}

type rosterTestEnv struct {
	svc     *teamService
	events  *fakeEventRepo
	roster  *fakeRosterRepo
	teams   *fakeTeamRepo
	athlete *fakeAthleteRepo
}

func newRosterTestEnv(now time.Time) *rosterTestEnv {
	events := &fakeEventRepo{events: map[int]*models.Event{
		100: {
			ID:          100,
			Name:        "Copa Mista",
			OrganizerID: 2,
			StartDate:   date(2025, time.June, 1),
			EndDate:     date(2025, time.June, 15),
			Status:      models.EventStatusScheduled,
			Category:    models.CategoryMixed,
			MinAge:      intPtr(15),
			MaxAge:      intPtr(17),
			CapTotal:    intPtr(2),
		},
	}}
	teams := &fakeTeamRepo{teams: map[int]*models.Team{
		10: {ID: 10, Name: "Tigres", ManagerID: 1},
	}}
	athletes := &fakeAthleteRepo{athletes: map[int]*models.Athlete{
		50: {
			ID:        50,
			Name:      "Ana",
			BirthDate: datePtr(date(2009, time.March, 3)),
			Sex:       sexPtr(models.SexFemale),
		},
		51: {ID: 51, Name: "Sem Dados"},
	}}
	roster := &fakeRosterRepo{}

	svc := &teamService{
		teamRepo:    teams,
		eventRepo:   events,
		athleteRepo: athletes,
		rosterRepo:  roster,
		userRepo:    &fakeProfileRepo{profiles: map[int]*models.Profile{}},
		now:         func() time.Time { return now },
	}
	return &rosterTestEnv{svc: svc, events: events, roster: roster, teams: teams, athlete: athletes}
}

func TestAddAthleteToRoster(t *testing.T) {
	beforeStart := date(2025, time.May, 20)

	t.Run("manager adds eligible athlete before start", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		entry, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 1)
		require.NoError(t, err)
		assert.Equal(t, 50, entry.AthleteID)
		require.Len(t, env.roster.added, 1)
	})

	t.Run("outsider is rejected before the lock check", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 99)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("manager is locked out after start", func(t *testing.T) {
		env := newRosterTestEnv(date(2025, time.June, 1))
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 1)
		assert.ErrorIs(t, err, ErrRosterLocked)
	})

	t.Run("organizer may modify after start", func(t *testing.T) {
		env := newRosterTestEnv(date(2025, time.June, 2))
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 2)
		require.NoError(t, err)
	})

	t.Run("athlete with missing data fails closed with both messages", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 51, 1)
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "data de nascimento")
		assert.Contains(t, err.Error(), "sexo do atleta")
	})

	t.Run("full roster blocks the add", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		env.roster.roster = []models.Athlete{
			{Sex: sexPtr(models.SexMale)},
			{Sex: sexPtr(models.SexFemale)},
		}
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 1)
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "limite de 2 atletas")
	})

	t.Run("transactional cap rejection surfaces as cap exceeded", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		env.roster.addErr = repositories.ErrRosterCapExceeded
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 1)
		assert.ErrorIs(t, err, ErrRosterCapExceeded)
	})

	t.Run("duplicate registration surfaces as conflict", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		env.roster.addErr = repositories.ErrRosterConflict
		_, err := env.svc.AddAthleteToRoster(context.Background(), 100, 10, 50, 1)
		assert.ErrorIs(t, err, ErrRosterConflict)
	})

	t.Run("unknown event", func(t *testing.T) {
		env := newRosterTestEnv(beforeStart)
		_, err := env.svc.AddAthleteToRoster(context.Background(), 999, 10, 50, 1)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestRemoveAthleteFromRosterLock(t *testing.T) {
	t.Run("manager removal blocked once in progress", func(t *testing.T) {
		env := newRosterTestEnv(date(2025, time.May, 20))
		env.events.events[100].Status = models.EventStatusInProgress
		err := env.svc.RemoveAthleteFromRoster(context.Background(), 100, 10, 50, 1)
		assert.ErrorIs(t, err, ErrRosterLocked)
	})

	t.Run("organizer removal allowed once in progress", func(t *testing.T) {
		env := newRosterTestEnv(date(2025, time.May, 20))
		env.events.events[100].Status = models.EventStatusInProgress
		err := env.svc.RemoveAthleteFromRoster(context.Background(), 100, 10, 50, 2)
		assert.NoError(t, err)
	})
}

func TestTeamUploadLogo(t *testing.T) {
	ctx := context.Background()

	newRepo := func(logoKey *string) *fakeTeamRepo {
		return &fakeTeamRepo{teams: map[int]*models.Team{
			10: {ID: 10, Name: "Tigres", ManagerID: 1, LogoKey: logoKey},
		}}
	}

	t.Run("uploads and persists the key", func(t *testing.T) {
		teams := newRepo(nil)
		uploader := &fakeUploader{}
		svc := &teamService{teamRepo: teams, uploader: uploader}

		team, err := svc.UploadLogo(ctx, 10, 1, strings.NewReader("png-bytes"), "image/png")
		require.NoError(t, err)

		assert.Equal(t, "teams/10/logo.png", uploader.uploadedKey)
		require.NotNil(t, teams.updated)
		require.NotNil(t, teams.updated.LogoKey)
		assert.Equal(t, "teams/10/logo.png", *teams.updated.LogoKey)
		require.NotNil(t, team.LogoURL)
		assert.Equal(t, "https://cdn.test/teams/10/logo.png", *team.LogoURL)
	})

	t.Run("replacing a logo removes the previous object", func(t *testing.T) {
		teams := newRepo(strPtr("teams/10/logo.jpg"))
		uploader := &fakeUploader{}
		svc := &teamService{teamRepo: teams, uploader: uploader}

		_, err := svc.UploadLogo(ctx, 10, 1, strings.NewReader("png-bytes"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, []string{"teams/10/logo.jpg"}, uploader.deletedKeys)
	})

	t.Run("only the manager may upload", func(t *testing.T) {
		teams := newRepo(nil)
		svc := &teamService{teamRepo: teams, uploader: &fakeUploader{}}

		_, err := svc.UploadLogo(ctx, 10, 99, strings.NewReader("png-bytes"), "image/png")
		assert.ErrorIs(t, err, ErrManagerActionForbidden)
		assert.Nil(t, teams.updated)
	})
}

func TestTeamUpdatePreservesLogoKey(t *testing.T) {
	ctx := context.Background()

	teams := &fakeTeamRepo{teams: map[int]*models.Team{
		10: {ID: 10, Name: "Tigres", ManagerID: 1, LogoKey: strPtr("teams/10/logo.png")},
	}}
	svc := &teamService{teamRepo: teams}

	// Rename payloads built from the API carry no logo key.
	require.NoError(t, svc.Update(ctx, &models.Team{ID: 10, Name: "Tigres FC"}, 1))
	require.NotNil(t, teams.updated)
	require.NotNil(t, teams.updated.LogoKey)
	assert.Equal(t, "teams/10/logo.png", *teams.updated.LogoKey)
}
