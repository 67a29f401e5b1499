package models

import "time"

// EventStatus represents event lifecycle states, matching the ENUM in the DB.
// Transitions are forward only: scheduled -> in_progress -> finished.
type EventStatus string

const (
	EventStatusScheduled  EventStatus = "scheduled"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusFinished   EventStatus = "finished"
)

// EventCategory is the competition sex category of an event.
type EventCategory string

const (
	CategoryMale   EventCategory = "masculino"
	CategoryFemale EventCategory = "feminino"
	CategoryMixed  EventCategory = "misto"
)

// Event represents a competition with a schedule, eligibility bounds and
// roster caps. Per-sex caps only apply when Category is mixed.
type Event struct {
	ID          int           `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description *string       `json:"description,omitempty" db:"description"`
	OrganizerID int           `json:"organizer_id" db:"organizer_id"`
	StartDate   time.Time     `json:"start_date" db:"start_date"`
	EndDate     time.Time     `json:"end_date" db:"end_date"`
	Status      EventStatus   `json:"status" db:"status"`
	Category    EventCategory `json:"category" db:"category"`
	MinAge      *int          `json:"min_age,omitempty" db:"min_age"`
	MaxAge      *int          `json:"max_age,omitempty" db:"max_age"`
	CapTotal    *int          `json:"cap_total,omitempty" db:"cap_total"`
	CapMale     *int          `json:"cap_male,omitempty" db:"cap_male"`
	CapFemale   *int          `json:"cap_female,omitempty" db:"cap_female"`
	Location    *string       `json:"location,omitempty" db:"location"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Organizer *Profile `json:"organizer,omitempty" db:"-"`
}

// Started reports whether the event must be considered started at the given
// instant, either by clock or by explicit status.
func (e *Event) Started(now time.Time) bool {
	if e.Status == EventStatusInProgress || e.Status == EventStatusFinished {
		return true
	}
	return !now.Before(e.StartDate)
}
