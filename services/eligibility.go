package services

import (
	"fmt"
	"time"

	"github.com/arenahub/event-system/models"
)

// ValidationResult is the outcome of a single eligibility check. Messages are
// user-facing and shown inline by the frontend, hence Portuguese.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(format string, args ...interface{}) ValidationResult {
	return ValidationResult{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// AgeAt computes whole-year age at the given instant using calendar year
// boundaries. A birthday falling exactly on the reference date counts as
// occurred.
func AgeAt(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age
}

// CheckAge validates the athlete's age against the event's inclusive age
// bounds, as of the event start date. Missing birth date fails closed.
func CheckAge(athlete *models.Athlete, event *models.Event) ValidationResult {
	if athlete.BirthDate == nil {
		return invalid("data de nascimento do atleta não informada")
	}

	age := AgeAt(*athlete.BirthDate, event.StartDate)

	if event.MinAge != nil && age < *event.MinAge {
		return invalid("idade %d abaixo do mínimo exigido: %d", age, *event.MinAge)
	}
	if event.MaxAge != nil && age > *event.MaxAge {
		return invalid("idade %d acima do máximo permitido: %d", age, *event.MaxAge)
	}
	return valid()
}

// CheckSex validates the athlete's sex against the event category. Mixed
// events accept any athlete; missing sex fails closed.
func CheckSex(athlete *models.Athlete, event *models.Event) ValidationResult {
	if athlete.Sex == nil {
		return invalid("sexo do atleta não informado")
	}
	if event.Category == models.CategoryMixed {
		return valid()
	}
	if string(*athlete.Sex) != string(event.Category) {
		return invalid("categoria %s não aceita atletas do sexo %s", event.Category, *athlete.Sex)
	}
	return valid()
}

// CheckRosterCaps validates that adding candidate to the supplied roster
// snapshot would not exceed the event caps. Per-sex caps only apply to mixed
// events. The check is advisory: the authoritative count re-runs inside the
// insert transaction (RosterRepository.Add).
func CheckRosterCaps(roster []models.Athlete, candidate *models.Athlete, event *models.Event) ValidationResult {
	total := len(roster) + 1
	if event.CapTotal != nil && total > *event.CapTotal {
		return invalid("limite de %d atletas por equipe atingido", *event.CapTotal)
	}

	if event.Category != models.CategoryMixed {
		return valid()
	}

	if res := checkSexCount(roster, candidate, models.SexMale, event.CapMale); !res.Valid {
		return res
	}
	return checkSexCount(roster, candidate, models.SexFemale, event.CapFemale)
}

func checkSexCount(roster []models.Athlete, candidate *models.Athlete, sex models.Sex, cap *int) ValidationResult {
	if cap == nil {
		return valid()
	}
	count := 0
	for _, a := range roster {
		if a.Sex != nil && *a.Sex == sex {
			count++
		}
	}
	if candidate.Sex != nil && *candidate.Sex == sex {
		count++
	}
	if count > *cap {
		return invalid("limite de %d atletas do sexo %s atingido", *cap, sex)
	}
	return valid()
}

// ValidateAthlete runs all three eligibility checks against the same
// snapshot and aggregates every failure; checks never short-circuit across
// each other so the caller can present all problems at once.
func ValidateAthlete(roster []models.Athlete, candidate *models.Athlete, event *models.Event) []ValidationResult {
	failures := make([]ValidationResult, 0, 3)
	for _, res := range []ValidationResult{
		CheckAge(candidate, event),
		CheckSex(candidate, event),
		CheckRosterCaps(roster, candidate, event),
	} {
		if !res.Valid {
			failures = append(failures, res)
		}
	}
	return failures
}

// RosterLockResult is the outcome of the roster modification gate.
type RosterLockResult struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

// CanModifyRoster decides whether a team roster may still change. Once an
// event has started (by clock or by status) only the organizer may modify
// it. Evaluated fresh on every attempt; nothing is cached.
func CanModifyRoster(event *models.Event, isOrganizer bool, now time.Time) RosterLockResult {
	if isOrganizer {
		return RosterLockResult{Allowed: true}
	}
	if event.Started(now) {
		return RosterLockResult{
			Allowed: false,
			Message: "o evento já começou; apenas o organizador pode alterar a escalação",
		}
	}
	return RosterLockResult{Allowed: true}
}
