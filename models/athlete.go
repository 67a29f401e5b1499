package models

import "time"

// Sex values mirror the ENUM in the DB.
type Sex string

const (
	SexMale   Sex = "masculino"
	SexFemale Sex = "feminino"
)

// Athlete represents a registered athlete. BirthDate and Sex are optional at
// registration time; eligibility checks that depend on a missing field fail
// closed.
type Athlete struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Sex       *Sex       `json:"sex,omitempty" db:"sex"`
	TeamID    *int       `json:"team_id,omitempty" db:"team_id"`
	ProfileID *int       `json:"profile_id,omitempty" db:"profile_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
