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
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteTokenConflict   = errors.New("invite token conflict")
	ErrInviteTeamInvalid     = errors.New("invite team conflict or invalid")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInviteAlreadyRedeemed = errors.New("invite already redeemed")
)

// InviteRepository persists invitation tokens (convites_equipe). Invites are
// never deleted; expiry is derived from expires_at.
type InviteRepository interface {
	// Create inserts a new invite and fills ID, CreatedAt.
	Create(ctx context.Context, invite *models.Invite) error

	GetByToken(ctx context.Context, token string) (*models.Invite, error)

	// Redeem performs the authoritative pending -> redeemed transition as a
	// single conditional update. Two concurrent redemptions of the same
	// token are serialized here: exactly one sees the pending row.
	Redeem(ctx context.Context, token string, now time.Time) (*models.Invite, error)

	ListByTeam(ctx context.Context, teamID int) ([]*models.Invite, error)
	ListByCreator(ctx context.Context, creatorID int) ([]*models.Invite, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

const inviteColumns = `id, token, kind, email, team_id, created_by, status, expires_at, created_at, redeemed_at`

func scanInvite(rowScanner interface {
	Scan(dest ...interface{}) error
}, inv *models.Invite) error {
	return rowScanner.Scan(
		&inv.ID,
		&inv.Token,
		&inv.Kind,
		&inv.Email,
		&inv.TeamID,
		&inv.CreatedBy,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.RedeemedAt,
	)
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO convites_equipe (token, kind, email, team_id, created_by, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.Token,
		invite.Kind,
		invite.Email,
		invite.TeamID,
		invite.CreatedBy,
		invite.Status,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "convites_equipe_token_key" {
					return ErrInviteTokenConflict
				}
			case "23503":
				if pqErr.Constraint == "convites_equipe_team_id_fkey" {
					return ErrInviteTeamInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM convites_equipe WHERE token = $1`

	invite := &models.Invite{}
	err := scanInvite(r.db.QueryRowContext(ctx, query, token), invite)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to scan invite: %w", err)
	}
	return invite, nil
}

func (r *postgresInviteRepository) Redeem(ctx context.Context, token string, now time.Time) (*models.Invite, error) {
	query := `
		UPDATE convites_equipe
		SET status = $1, redeemed_at = $2
		WHERE token = $3 AND status = $4 AND expires_at > $2
		RETURNING ` + inviteColumns

	invite := &models.Invite{}
	err := scanInvite(r.db.QueryRowContext(ctx, query,
		models.InviteStatusRedeemed,
		now,
		token,
		models.InviteStatusPending,
	), invite)
	if err == nil {
		return invite, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to redeem invite: %w", err)
	}

	// The conditional update matched nothing. Look the token up to report
	// which terminal state blocked it.
	existing, getErr := r.GetByToken(ctx, token)
	if getErr != nil {
		return nil, getErr
	}
	if existing.Status == models.InviteStatusRedeemed {
		return nil, ErrInviteAlreadyRedeemed
	}
	return nil, ErrInviteExpired
}

func (r *postgresInviteRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM convites_equipe WHERE team_id = $1 ORDER BY created_at DESC`
	return r.queryInvites(ctx, query, teamID)
}

func (r *postgresInviteRepository) ListByCreator(ctx context.Context, creatorID int) ([]*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM convites_equipe WHERE created_by = $1 ORDER BY created_at DESC`
	return r.queryInvites(ctx, query, creatorID)
}

func (r *postgresInviteRepository) queryInvites(ctx context.Context, query string, args ...interface{}) ([]*models.Invite, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		var invite models.Invite
		if scanErr := scanInvite(rows, &invite); scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, &invite)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}
