package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
)

const (
	inviteTokenLength = 16                 // bytes of entropy, 32 hex chars
	inviteDuration    = 7 * 24 * time.Hour // invites expire after 7 days exactly
)

var (
	ErrInviteCreationFailed  = errors.New("failed to create invite")
	ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")
	ErrInviteTeamRequired    = errors.New("athlete invites require a team")
	ErrInviteTeamNotAllowed  = errors.New("manager invites must not reference a team")
)

type IssueInviteInput struct {
	Kind     models.InviteKind
	Email    string
	TeamID   *int
	IssuerID int
}

type InviteService interface {
	Issue(ctx context.Context, input IssueInviteInput) (*models.Invite, error)
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	Redeem(ctx context.Context, token string) (*models.Invite, error)
	ListTeamInvites(ctx context.Context, teamID, currentUserID int) ([]*models.Invite, error)
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.ProfileRepository
	now        func() time.Time
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.ProfileRepository,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// NormalizeEmail trims surrounding whitespace and lowercases. Applied before
// storage and before every equality comparison against a stored invite.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsRedeemable reports whether the invite can still be consumed at the given
// instant. Pure and advisory: the authoritative transition is the conditional
// update in InviteRepository.Redeem.
func IsRedeemable(invite *models.Invite, now time.Time) bool {
	return invite.Status == models.InviteStatusPending && now.Before(invite.ExpiresAt)
}

// BuildInviteLink assembles the registration URL consumed by the invited
// party: <baseURL>/<route>?token=<token>.
func BuildInviteLink(baseURL, route string, invite *models.Invite) (string, error) {
	if baseURL == "" {
		return "", errors.New("base URL is required to build an invite link")
	}
	return fmt.Sprintf("%s/%s?token=%s",
		strings.TrimRight(baseURL, "/"),
		strings.Trim(route, "/"),
		invite.Token,
	), nil
}

func (s *inviteService) Issue(ctx context.Context, input IssueInviteInput) (*models.Invite, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	switch input.Kind {
	case models.InviteKindAthlete:
		if input.TeamID == nil {
			return nil, ErrInviteTeamRequired
		}
		team, err := s.teamRepo.GetByID(ctx, *input.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to get team %d: %w", *input.TeamID, err)
		}
		issuer, err := s.userRepo.GetByID(ctx, input.IssuerID)
		if err != nil {
			if errors.Is(err, repositories.ErrProfileNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, fmt.Errorf("failed to get issuer %d: %w", input.IssuerID, err)
		}
		if team.ManagerID != input.IssuerID && issuer.Role != models.RoleOrganizer {
			return nil, ErrManagerActionForbidden
		}
	case models.InviteKindManager:
		if input.TeamID != nil {
			return nil, ErrInviteTeamNotAllowed
		}
		issuer, err := s.userRepo.GetByID(ctx, input.IssuerID)
		if err != nil {
			if errors.Is(err, repositories.ErrProfileNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, fmt.Errorf("failed to get issuer %d: %w", input.IssuerID, err)
		}
		if issuer.Role != models.RoleOrganizer {
			return nil, ErrForbiddenOperation
		}
	default:
		return nil, fmt.Errorf("%w: unknown invite kind %q", ErrValidationFailed, input.Kind)
	}

	maxAttempts := 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}

		now := s.now()
		invite := &models.Invite{
			Token:     token,
			Kind:      input.Kind,
			Email:     email,
			TeamID:    input.TeamID,
			CreatedBy: input.IssuerID,
			Status:    models.InviteStatusPending,
			ExpiresAt: now.Add(inviteDuration),
		}

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}
		if !errors.Is(err, repositories.ErrInviteTokenConflict) {
			if errors.Is(err, repositories.ErrInviteTeamInvalid) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrInviteCreationFailed, err)
		}
		// token collision, retry with a fresh one
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, maxAttempts)
}

func (s *inviteService) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}
	if !IsRedeemable(invite, s.now()) {
		if invite.Status == models.InviteStatusRedeemed {
			return nil, ErrInviteAlreadyRedeemed
		}
		return nil, ErrInviteExpired
	}
	return invite, nil
}

// Redeem consumes the invite exactly once. The repository performs the
// authoritative pending -> redeemed compare-and-swap; two concurrent calls
// on the same token cannot both succeed.
func (s *inviteService) Redeem(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.Redeem(ctx, token, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInviteNotFound):
			return nil, ErrInviteNotFound
		case errors.Is(err, repositories.ErrInviteAlreadyRedeemed):
			return nil, ErrInviteAlreadyRedeemed
		case errors.Is(err, repositories.ErrInviteExpired):
			return nil, ErrInviteExpired
		}
		return nil, fmt.Errorf("failed to redeem invite: %w", err)
	}
	return invite, nil
}

func (s *inviteService) ListTeamInvites(ctx context.Context, teamID, currentUserID int) ([]*models.Invite, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.ManagerID != currentUserID {
		return nil, ErrManagerActionForbidden
	}

	invites, err := s.inviteRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team invites: %w", err)
	}

	// Only pending, unexpired invites are interesting to the manager.
	active := make([]*models.Invite, 0, len(invites))
	now := s.now()
	for _, invite := range invites {
		if IsRedeemable(invite, now) {
			active = append(active, invite)
		}
	}
	return active, nil
}
