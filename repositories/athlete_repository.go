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
	ErrAthleteNotFound      = errors.New("athlete not found")
	ErrAthleteEmailConflict = errors.New("athlete email conflict")
	ErrAthleteTeamInvalid   = errors.New("athlete team conflict or invalid")
)

type AthleteRepository interface {
	Create(ctx context.Context, athlete *models.Athlete) error
	GetByID(ctx context.Context, id int) (*models.Athlete, error)
	GetByEmail(ctx context.Context, email string) (*models.Athlete, error)
	Update(ctx context.Context, athlete *models.Athlete) error
	ListByTeam(ctx context.Context, teamID int) ([]models.Athlete, error)
}

type postgresAthleteRepository struct {
	db *sql.DB
}

func NewPostgresAthleteRepository(db *sql.DB) AthleteRepository {
	return &postgresAthleteRepository{db: db}
}

func scanAthlete(rowScanner interface {
	Scan(dest ...interface{}) error
}, a *models.Athlete) error {
	return rowScanner.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.BirthDate,
		&a.Sex,
		&a.TeamID,
		&a.ProfileID,
		&a.CreatedAt,
	)
}

const athleteColumns = `id, name, email, birth_date, sex, team_id, profile_id, created_at`

func (r *postgresAthleteRepository) Create(ctx context.Context, athlete *models.Athlete) error {
	query := `
		INSERT INTO atletas (name, email, birth_date, sex, team_id, profile_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		athlete.Name,
		athlete.Email,
		athlete.BirthDate,
		athlete.Sex,
		athlete.TeamID,
		athlete.ProfileID,
	).Scan(&athlete.ID, &athlete.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "atletas_email_key" {
					return ErrAthleteEmailConflict
				}
			case "23503":
				if pqErr.Constraint == "atletas_team_id_fkey" {
					return ErrAthleteTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create athlete: %w", err)
	}
	return nil
}

func (r *postgresAthleteRepository) GetByID(ctx context.Context, id int) (*models.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM atletas WHERE id = $1`

	athlete := &models.Athlete{}
	err := scanAthlete(r.db.QueryRowContext(ctx, query, id), athlete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to scan athlete: %w", err)
	}
	return athlete, nil
}

func (r *postgresAthleteRepository) GetByEmail(ctx context.Context, email string) (*models.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM atletas WHERE email = $1`

	athlete := &models.Athlete{}
	err := scanAthlete(r.db.QueryRowContext(ctx, query, email), athlete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to scan athlete: %w", err)
	}
	return athlete, nil
}

func (r *postgresAthleteRepository) Update(ctx context.Context, athlete *models.Athlete) error {
	query := `
		UPDATE atletas
		SET name = $1, email = $2, birth_date = $3, sex = $4, team_id = $5, profile_id = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		athlete.Name,
		athlete.Email,
		athlete.BirthDate,
		athlete.Sex,
		athlete.TeamID,
		athlete.ProfileID,
		athlete.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "atletas_email_key" {
					return ErrAthleteEmailConflict
				}
			case "23503":
				if pqErr.Constraint == "atletas_team_id_fkey" {
					return ErrAthleteTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to update athlete: %w", err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM atletas WHERE team_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, teamID)
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
