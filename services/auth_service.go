package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
	"github.com/arenahub/event-system/utils"
)

const minPasswordLength = 8

type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string
	Password string
}

// RegisterWithInviteInput completes registration through a tokenized invite
// link. The email comes from the invite itself, never from the caller.
type RegisterWithInviteInput struct {
	Token     string      `json:"token"`
	FullName  string      `json:"full_name"`
	Password  string      `json:"password"`
	BirthDate *time.Time  `json:"birth_date,omitempty"`
	Sex       *models.Sex `json:"sex,omitempty"`
}

type AuthService interface {
	// Register creates an organizer account. Managers and athletes only
	// enter the system through invites.
	Register(ctx context.Context, input RegisterInput) (*models.Profile, error)
	Login(ctx context.Context, input LoginInput) (*models.Profile, error)
	RegisterWithInvite(ctx context.Context, input RegisterWithInviteInput) (*models.Profile, error)
}

type authService struct {
	userRepo    repositories.ProfileRepository
	athleteRepo repositories.AthleteRepository
	invites     InviteService
}

func NewAuthService(
	userRepo repositories.ProfileRepository,
	athleteRepo repositories.AthleteRepository,
	invites InviteService,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		athleteRepo: athleteRepo,
		invites:     invites,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Profile, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || !utils.IsValidEmail(email) {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		FullName:     input.FullName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleOrganizer,
	}
	if err := s.userRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrProfileEmailConflict
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Profile, error) {
	profile, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, profile.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}

	profile.PasswordHash = ""
	return profile, nil
}

// RegisterWithInvite consumes the invite (single use, enforced by the
// store's conditional update) and creates the invited account. A consumed
// token whose account creation subsequently fails requires a fresh invite;
// issuance is cheap and the alternative would leave a redeemable token for
// an already-created account.
func (s *authService) RegisterWithInvite(ctx context.Context, input RegisterWithInviteInput) (*models.Profile, error) {
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	invite, err := s.invites.Redeem(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleManager
	if invite.Kind == models.InviteKindAthlete {
		role = models.RoleAthlete
	}

	profile := &models.Profile{
		FullName:     input.FullName,
		Email:        invite.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrProfileEmailConflict
		}
		return nil, fmt.Errorf("failed to create invited profile: %w", err)
	}

	if invite.Kind == models.InviteKindAthlete {
		athlete := &models.Athlete{
			Name:      input.FullName,
			Email:     invite.Email,
			BirthDate: input.BirthDate,
			Sex:       input.Sex,
			TeamID:    invite.TeamID,
			ProfileID: &profile.ID,
		}
		if err := s.athleteRepo.Create(ctx, athlete); err != nil {
			if errors.Is(err, repositories.ErrAthleteEmailConflict) {
				return nil, ErrAthleteEmailConflict
			}
			return nil, fmt.Errorf("failed to create invited athlete: %w", err)
		}
	}

	profile.PasswordHash = ""
	return profile, nil
}
