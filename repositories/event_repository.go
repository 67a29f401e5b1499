package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNameConflict     = errors.New("event name conflict")
	ErrEventOrganizerInvalid = errors.New("event organizer conflict or invalid")
	ErrEventStatusStale      = errors.New("event status changed concurrently")
)

// EventFilter narrows List results. Zero values mean "no filter".
type EventFilter struct {
	Status      models.EventStatus
	OrganizerID int
	Page        int
	PerPage     int
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error

	// UpdateStatus performs a conditional transition: the row is only
	// updated when its current status still equals from. Returns
	// ErrEventStatusStale when another writer got there first.
	UpdateStatus(ctx context.Context, id int, from, to models.EventStatus) error

	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// ListDueForStart returns scheduled events whose start date has passed.
	ListDueForStart(ctx context.Context, now time.Time) ([]*models.Event, error)
	// ListDueForFinish returns in-progress events whose end date has passed.
	ListDueForFinish(ctx context.Context, now time.Time) ([]*models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, name, description, organizer_id, start_date, end_date, status, category,
		min_age, max_age, cap_total, cap_male, cap_female, location, logo_key, created_at`

func scanEvent(rowScanner interface {
	Scan(dest ...interface{}) error
}, e *models.Event) error {
	return rowScanner.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.OrganizerID,
		&e.StartDate,
		&e.EndDate,
		&e.Status,
		&e.Category,
		&e.MinAge,
		&e.MaxAge,
		&e.CapTotal,
		&e.CapMale,
		&e.CapFemale,
		&e.Location,
		&e.LogoKey,
		&e.CreatedAt,
	)
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO eventos (name, description, organizer_id, start_date, end_date, status, category,
			min_age, max_age, cap_total, cap_male, cap_female, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.OrganizerID,
		event.StartDate,
		event.EndDate,
		event.Status,
		event.Category,
		event.MinAge,
		event.MaxAge,
		event.CapTotal,
		event.CapMale,
		event.CapFemale,
		event.Location,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "eventos_name_key" {
					return ErrEventNameConflict
				}
			case "23503":
				if pqErr.Constraint == "eventos_organizer_id_fkey" {
					return ErrEventOrganizerInvalid
				}
			}
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM eventos WHERE id = $1`

	event := &models.Event{}
	err := scanEvent(r.db.QueryRowContext(ctx, query, id), event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return event, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE eventos
		SET name = $1, description = $2, start_date = $3, end_date = $4, category = $5,
			min_age = $6, max_age = $7, cap_total = $8, cap_male = $9, cap_female = $10,
			location = $11, logo_key = $12
		WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Category,
		event.MinAge,
		event.MaxAge,
		event.CapTotal,
		event.CapMale,
		event.CapFemale,
		event.Location,
		event.LogoKey,
		event.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "eventos_name_key" {
				return ErrEventNameConflict
			}
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, from, to models.EventStatus) error {
	query := `UPDATE eventos SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the row is gone or the status moved under us.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrEventStatusStale
	}
	return nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM eventos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	limit, offset := limitOffset(filter.Page, filter.PerPage)

	query := `SELECT ` + eventColumns + ` FROM eventos WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.OrganizerID > 0 {
		args = append(args, filter.OrganizerID)
		query += fmt.Sprintf(" AND organizer_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryEvents(ctx, query, args...)
}

func (r *postgresEventRepository) ListDueForStart(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM eventos WHERE status = $1 AND start_date <= $2`
	return r.queryEvents(ctx, query, models.EventStatusScheduled, now)
}

func (r *postgresEventRepository) ListDueForFinish(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM eventos WHERE status = $1 AND end_date <= $2`
	return r.queryEvents(ctx, query, models.EventStatusInProgress, now)
}

func (r *postgresEventRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var event models.Event
		if scanErr := scanEvent(rows, &event); scanErr != nil {
			return nil, scanErr
		}
		events = append(events, &event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
