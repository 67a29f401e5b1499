package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arenahub/event-system/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchEventInvalid    = errors.New("match event conflict or invalid")
	ErrMatchAlreadyFinished = errors.New("match already finished")
)

type MatchFilter struct {
	Round   int
	Page    int
	PerPage int
}

type MatchRepository interface {
	// GenerateForEvent delegates pairing generation to the DB-side
	// gerar_partidas_evento procedure. Seeding, bye handling and round
	// count live entirely in the database; callers only receive the
	// resulting rows.
	GenerateForEvent(ctx context.Context, eventID int) error

	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByEvent(ctx context.Context, eventID int, filter MatchFilter) ([]*models.Match, error)
	UpdateSchedule(ctx context.Context, matchID int, startsAt time.Time) error
	UpdateScore(ctx context.Context, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, event_id, round, home_team_id, away_team_id, home_score, away_score,
		starts_at, status, winner_team_id, created_at`

func scanMatch(rowScanner interface {
	Scan(dest ...interface{}) error
}, m *models.Match) error {
	return rowScanner.Scan(
		&m.ID,
		&m.EventID,
		&m.Round,
		&m.HomeTeamID,
		&m.AwayTeamID,
		&m.HomeScore,
		&m.AwayScore,
		&m.StartsAt,
		&m.Status,
		&m.WinnerTeamID,
		&m.CreatedAt,
	)
}

func (r *postgresMatchRepository) GenerateForEvent(ctx context.Context, eventID int) error {
	_, err := r.db.ExecContext(ctx, `SELECT gerar_partidas_evento($1)`, eventID)
	if err != nil {
		return fmt.Errorf("gerar_partidas_evento failed for event %d: %w", eventID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM partidas WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByEvent(ctx context.Context, eventID int, filter MatchFilter) ([]*models.Match, error) {
	limit, offset := limitOffset(filter.Page, filter.PerPage)

	query := `SELECT ` + matchColumns + ` FROM partidas WHERE event_id = $1`
	args := []interface{}{eventID}

	if filter.Round > 0 {
		args = append(args, filter.Round)
		query += fmt.Sprintf(" AND round = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY round, id LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, matchID int, startsAt time.Time) error {
	query := `UPDATE partidas SET starts_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, startsAt, matchID)
	if err != nil {
		return fmt.Errorf("failed to update match schedule: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, match *models.Match) error {
	// Conditional on the match not already being finished, so a late write
	// cannot overwrite a final result.
	query := `
		UPDATE partidas
		SET home_score = $1, away_score = $2, status = $3, winner_team_id = $4
		WHERE id = $5 AND status <> $6`

	result, err := r.db.ExecContext(ctx, query,
		match.HomeScore,
		match.AwayScore,
		match.Status,
		match.WinnerTeamID,
		match.ID,
		models.MatchStatusFinished,
	)
	if err != nil {
		return fmt.Errorf("failed to update match score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, match.ID); getErr != nil {
			return getErr
		}
		return ErrMatchAlreadyFinished
	}
	return nil
}
