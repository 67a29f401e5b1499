package models

import "time"

// RosterEntry binds an athlete to a team for a given event (inscricoes).
type RosterEntry struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"event_id" db:"event_id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	AthleteID int       `json:"athlete_id" db:"athlete_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Athlete *Athlete `json:"athlete,omitempty" db:"-"`
}
