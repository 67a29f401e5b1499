package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/event-system/models"
)

func intPtr(v int) *int               { return &v }
func sexPtr(s models.Sex) *models.Sex { return &s }
func datePtr(t time.Time) *time.Time  { return &t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		at    time.Time
		want  int
	}{
		{"birthday already passed this year", date(2010, time.March, 10), date(2025, time.June, 1), 15},
		{"birthday exactly on reference date", date(2010, time.June, 1), date(2025, time.June, 1), 15},
		{"birthday the day after reference date", date(2010, time.June, 2), date(2025, time.June, 1), 14},
		{"birthday later this year", date(2010, time.December, 31), date(2025, time.June, 1), 14},
		{"same month earlier day", date(2010, time.June, 15), date(2025, time.June, 20), 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.birth, tt.at))
		})
	}
}

func TestCheckAge(t *testing.T) {
	event := &models.Event{
		StartDate: date(2025, time.June, 1),
		MinAge:    intPtr(15),
		MaxAge:    intPtr(17),
	}

	t.Run("missing birth date fails closed", func(t *testing.T) {
		res := CheckAge(&models.Athlete{}, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "data de nascimento")
	})

	t.Run("turns min age on event day", func(t *testing.T) {
		athlete := &models.Athlete{BirthDate: datePtr(date(2010, time.June, 1))}
		assert.True(t, CheckAge(athlete, event).Valid)
	})

	t.Run("one day short of min age", func(t *testing.T) {
		athlete := &models.Athlete{BirthDate: datePtr(date(2010, time.June, 2))}
		res := CheckAge(athlete, event)
		require.False(t, res.Valid)
		assert.Equal(t, "idade 14 abaixo do mínimo exigido: 15", res.Message)
	})

	t.Run("max age is inclusive", func(t *testing.T) {
		athlete := &models.Athlete{BirthDate: datePtr(date(2008, time.June, 1))}
		assert.True(t, CheckAge(athlete, event).Valid)
	})

	t.Run("above max age", func(t *testing.T) {
		athlete := &models.Athlete{BirthDate: datePtr(date(2007, time.May, 31))}
		res := CheckAge(athlete, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "acima do máximo")
	})

	t.Run("no bounds set accepts any age", func(t *testing.T) {
		open := &models.Event{StartDate: date(2025, time.June, 1)}
		athlete := &models.Athlete{BirthDate: datePtr(date(1950, time.January, 1))}
		assert.True(t, CheckAge(athlete, open).Valid)
	})
}

func TestCheckSex(t *testing.T) {
	t.Run("missing sex fails closed", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMixed}
		res := CheckSex(&models.Athlete{}, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "sexo do atleta")
	})

	t.Run("mixed accepts any sex", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMixed}
		assert.True(t, CheckSex(&models.Athlete{Sex: sexPtr(models.SexMale)}, event).Valid)
		assert.True(t, CheckSex(&models.Athlete{Sex: sexPtr(models.SexFemale)}, event).Valid)
	})

	t.Run("single-sex category requires match", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryFemale}
		assert.True(t, CheckSex(&models.Athlete{Sex: sexPtr(models.SexFemale)}, event).Valid)

		res := CheckSex(&models.Athlete{Sex: sexPtr(models.SexMale)}, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "não aceita atletas")
	})
}

func TestCheckRosterCaps(t *testing.T) {
	male := models.Athlete{Sex: sexPtr(models.SexMale)}
	female := models.Athlete{Sex: sexPtr(models.SexFemale)}

	t.Run("total cap reached", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMale, CapTotal: intPtr(2)}
		roster := []models.Athlete{male, male}
		res := CheckRosterCaps(roster, &male, event)
		require.False(t, res.Valid)
		assert.Equal(t, "limite de 2 atletas por equipe atingido", res.Message)
	})

	t.Run("total cap with room left", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMale, CapTotal: intPtr(2)}
		assert.True(t, CheckRosterCaps([]models.Athlete{male}, &male, event).Valid)
	})

	t.Run("per-sex caps ignored outside mixed", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMale, CapMale: intPtr(1)}
		roster := []models.Athlete{male}
		assert.True(t, CheckRosterCaps(roster, &male, event).Valid)
	})

	t.Run("mixed male cap reached", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMixed, CapMale: intPtr(1)}
		roster := []models.Athlete{male}
		res := CheckRosterCaps(roster, &male, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "masculino")
	})

	t.Run("mixed female cap reached", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMixed, CapFemale: intPtr(2)}
		roster := []models.Athlete{female, female}
		res := CheckRosterCaps(roster, &female, event)
		require.False(t, res.Valid)
		assert.Contains(t, res.Message, "feminino")
	})

	t.Run("mixed caps with room for the other sex", func(t *testing.T) {
		event := &models.Event{
			Category:  models.CategoryMixed,
			CapMale:   intPtr(1),
			CapFemale: intPtr(1),
		}
		roster := []models.Athlete{male}
		assert.True(t, CheckRosterCaps(roster, &female, event).Valid)
	})

	t.Run("no caps configured", func(t *testing.T) {
		event := &models.Event{Category: models.CategoryMixed}
		roster := []models.Athlete{male, female, male, female}
		assert.True(t, CheckRosterCaps(roster, &male, event).Valid)
	})
}

func TestValidateAthleteAggregatesFailures(t *testing.T) {
	event := &models.Event{
		StartDate: date(2025, time.June, 1),
		Category:  models.CategoryFemale,
		MinAge:    intPtr(15),
		CapTotal:  intPtr(1),
	}
	roster := []models.Athlete{{Sex: sexPtr(models.SexFemale)}}
	candidate := &models.Athlete{
		BirthDate: datePtr(date(2012, time.January, 1)),
		Sex:       sexPtr(models.SexMale),
	}

	failures := ValidateAthlete(roster, candidate, event)
	require.Len(t, failures, 3)
	assert.Contains(t, failures[0].Message, "abaixo do mínimo")
	assert.Contains(t, failures[1].Message, "não aceita atletas")
	assert.Contains(t, failures[2].Message, "limite de 1 atletas")
}

func TestValidateAthleteAllGood(t *testing.T) {
	event := &models.Event{
		StartDate: date(2025, time.June, 1),
		Category:  models.CategoryMixed,
		MinAge:    intPtr(15),
		MaxAge:    intPtr(17),
		CapTotal:  intPtr(10),
	}
	candidate := &models.Athlete{
		BirthDate: datePtr(date(2009, time.March, 3)),
		Sex:       sexPtr(models.SexFemale),
	}
	assert.Empty(t, ValidateAthlete(nil, candidate, event))
}

func TestCanModifyRoster(t *testing.T) {
	now := date(2025, time.June, 10)

	tests := []struct {
		name        string
		event       models.Event
		isOrganizer bool
		allowed     bool
	}{
		{
			name:    "before start anyone may modify",
			event:   models.Event{StartDate: date(2025, time.June, 11), Status: models.EventStatusScheduled},
			allowed: true,
		},
		{
			name:    "start date reached locks non-organizers",
			event:   models.Event{StartDate: date(2025, time.June, 10), Status: models.EventStatusScheduled},
			allowed: false,
		},
		{
			name:    "in-progress status locks even before start date",
			event:   models.Event{StartDate: date(2025, time.June, 20), Status: models.EventStatusInProgress},
			allowed: false,
		},
		{
			name:    "finished status locks",
			event:   models.Event{StartDate: date(2025, time.June, 1), Status: models.EventStatusFinished},
			allowed: false,
		},
		{
			name:        "organizer bypasses the lock",
			event:       models.Event{StartDate: date(2025, time.June, 1), Status: models.EventStatusInProgress},
			isOrganizer: true,
			allowed:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CanModifyRoster(&tt.event, tt.isOrganizer, now)
			assert.Equal(t, tt.allowed, res.Allowed)
			if !tt.allowed {
				assert.Contains(t, res.Message, "organizador")
			}
		})
	}
}
