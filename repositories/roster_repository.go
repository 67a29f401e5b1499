package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenahub/event-system/models"
	"github.com/lib/pq"
)

var (
	ErrRosterEntryNotFound = errors.New("roster entry not found")
	ErrRosterConflict      = errors.New("athlete already registered for this event")
	ErrRosterCapExceeded   = errors.New("roster cap exceeded")
	ErrRosterRefInvalid    = errors.New("roster reference conflict or invalid")
)

type RosterRepository interface {
	// Add inserts a roster entry while re-validating the event caps inside
	// the same transaction. The service-level cap check is advisory only;
	// this is the authoritative one (two concurrent inserts would otherwise
	// both pass against a stale snapshot).
	Add(ctx context.Context, entry *models.RosterEntry, event *models.Event) error

	Remove(ctx context.Context, eventID, teamID, athleteID int) error
	ListByEventAndTeam(ctx context.Context, eventID, teamID int) ([]models.Athlete, error)
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) Add(ctx context.Context, entry *models.RosterEntry, event *models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin roster transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialize concurrent roster inserts for the same team/event by
	// locking the team row. Counting alone would not block a phantom insert.
	var lockedTeamID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM equipes WHERE id = $1 FOR UPDATE`, entry.TeamID).
		Scan(&lockedTeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to lock team row: %w", err)
	}

	if event.CapTotal != nil {
		var total int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM inscricoes
			WHERE event_id = $1 AND team_id = $2`, entry.EventID, entry.TeamID).Scan(&total)
		if err != nil {
			return fmt.Errorf("failed to count roster: %w", err)
		}
		if total+1 > *event.CapTotal {
			return ErrRosterCapExceeded
		}
	}

	if event.Category == models.CategoryMixed {
		if err := r.checkSexCap(ctx, tx, entry, models.SexMale, event.CapMale); err != nil {
			return err
		}
		if err := r.checkSexCap(ctx, tx, entry, models.SexFemale, event.CapFemale); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO inscricoes (event_id, team_id, athlete_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query, entry.EventID, entry.TeamID, entry.AthleteID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "inscricoes_event_id_athlete_id_key" {
					return ErrRosterConflict
				}
			case "23503":
				return ErrRosterRefInvalid
			}
		}
		return fmt.Errorf("failed to insert roster entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roster transaction: %w", err)
	}
	return nil
}

func (r *postgresRosterRepository) checkSexCap(ctx context.Context, tx *sql.Tx, entry *models.RosterEntry, sex models.Sex, cap *int) error {
	if cap == nil {
		return nil
	}

	var candidateSex *models.Sex
	err := tx.QueryRowContext(ctx, `SELECT sex FROM atletas WHERE id = $1`, entry.AthleteID).
		Scan(&candidateSex)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAthleteNotFound
		}
		return fmt.Errorf("failed to load candidate sex: %w", err)
	}
	if candidateSex == nil || *candidateSex != sex {
		return nil
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM inscricoes i
		JOIN atletas a ON a.id = i.athlete_id
		WHERE i.event_id = $1 AND i.team_id = $2 AND a.sex = $3`,
		entry.EventID, entry.TeamID, sex).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count roster by sex: %w", err)
	}
	if count+1 > *cap {
		return ErrRosterCapExceeded
	}
	return nil
}

func (r *postgresRosterRepository) Remove(ctx context.Context, eventID, teamID, athleteID int) error {
	query := `DELETE FROM inscricoes WHERE event_id = $1 AND team_id = $2 AND athlete_id = $3`

	result, err := r.db.ExecContext(ctx, query, eventID, teamID, athleteID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRosterEntryNotFound)
}

func (r *postgresRosterRepository) ListByEventAndTeam(ctx context.Context, eventID, teamID int) ([]models.Athlete, error) {
	query := `
		SELECT a.id, a.name, a.email, a.birth_date, a.sex, a.team_id, a.profile_id, a.created_at
		FROM inscricoes i
		JOIN atletas a ON a.id = i.athlete_id
		WHERE i.event_id = $1 AND i.team_id = $2
		ORDER BY a.name`

	rows, err := r.db.QueryContext(ctx, query, eventID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	athletes := make([]models.Athlete, 0)
	for rows.Next() {
		var athlete models.Athlete
		if scanErr := scanAthlete(rows, &athlete); scanErr != nil {
			return nil, scanErr
		}
		athletes = append(athletes, athlete)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return athletes, nil
}
