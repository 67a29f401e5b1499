package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
)

// Match is a single pairing inside an event (partidas). Pairings come from
// the DB-side gerar_partidas_evento procedure; the service layer only
// assigns calendar slots and records scores.
type Match struct {
	ID           int         `json:"id" db:"id"`
	EventID      int         `json:"event_id" db:"event_id"`
	Round        *int        `json:"round,omitempty" db:"round"`
	HomeTeamID   int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID   int         `json:"away_team_id" db:"away_team_id"`
	HomeScore    *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore    *int        `json:"away_score,omitempty" db:"away_score"`
	StartsAt     *time.Time  `json:"starts_at,omitempty" db:"starts_at"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}
