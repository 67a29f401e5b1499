package services

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/repositories"
)

type fakeInviteRepo struct {
	byToken map[string]*models.Invite
	nextID  int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{byToken: make(map[string]*models.Invite)}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	if _, exists := r.byToken[invite.Token]; exists {
		return repositories.ErrInviteTokenConflict
	}
	r.nextID++
	invite.ID = r.nextID
	invite.CreatedAt = invite.ExpiresAt.Add(-7 * 24 * time.Hour)
	stored := *invite
	r.byToken[invite.Token] = &stored
	return nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (*models.Invite, error) {
	invite, ok := r.byToken[token]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	copied := *invite
	return &copied, nil
}

// Redeem mirrors the conditional-update semantics of the Postgres
// implementation: the transition succeeds only from a live pending row.
func (r *fakeInviteRepo) Redeem(_ context.Context, token string, now time.Time) (*models.Invite, error) {
	invite, ok := r.byToken[token]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	if invite.Status == models.InviteStatusRedeemed {
		return nil, repositories.ErrInviteAlreadyRedeemed
	}
	if !now.Before(invite.ExpiresAt) {
		return nil, repositories.ErrInviteExpired
	}
	invite.Status = models.InviteStatusRedeemed
	invite.RedeemedAt = &now
	copied := *invite
	return &copied, nil
}

func (r *fakeInviteRepo) ListByTeam(_ context.Context, teamID int) ([]*models.Invite, error) {
	out := make([]*models.Invite, 0)
	for _, invite := range r.byToken {
		if invite.TeamID != nil && *invite.TeamID == teamID {
			copied := *invite
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListByCreator(_ context.Context, creatorID int) ([]*models.Invite, error) {
	out := make([]*models.Invite, 0)
	for _, invite := range r.byToken {
		if invite.CreatedBy == creatorID {
			copied := *invite
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeTeamRepo struct {
	teams   map[int]*models.Team
	updated *models.Team
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error { return nil }

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	r.updated = team
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error { return nil }

func (r *fakeTeamRepo) ListByManager(_ context.Context, managerID int) ([]*models.Team, error) {
	return nil, nil
}

type fakeProfileRepo struct {
	profiles map[int]*models.Profile
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *models.Profile) error { return nil }

func (r *fakeProfileRepo) GetByID(_ context.Context, id int) (*models.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return profile, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, profile := range r.profiles {
		if profile.Email == email {
			return profile, nil
		}
	}
	return nil, repositories.ErrProfileNotFound
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *models.Profile) error { return nil }

func newTestInviteService(now time.Time) (*inviteService, *fakeInviteRepo) {
	inviteRepo := newFakeInviteRepo()
	teamRepo := &fakeTeamRepo{teams: map[int]*models.Team{
		10: {ID: 10, Name: "Tigres", ManagerID: 1},
	}}
	profileRepo := &fakeProfileRepo{profiles: map[int]*models.Profile{
		1: {ID: 1, Role: models.RoleManager},
		2: {ID: 2, Role: models.RoleOrganizer},
		3: {ID: 3, Role: models.RoleAthlete},
	}}
	svc := &inviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		userRepo:   profileRepo,
		now:        func() time.Time { return now },
	}
	return svc, inviteRepo
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@exemplo.com", NormalizeEmail("  Ana@Exemplo.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestIsRedeemable(t *testing.T) {
	created := date(2025, time.June, 1)
	expires := created.Add(7 * 24 * time.Hour)

	tests := []struct {
		name   string
		status models.InviteStatus
		at     time.Time
		want   bool
	}{
		{"pending before expiry", models.InviteStatusPending, created.Add(time.Hour), true},
		{"pending one instant before expiry", models.InviteStatusPending, expires.Add(-time.Millisecond), true},
		{"pending exactly at expiry", models.InviteStatusPending, expires, false},
		{"pending past expiry", models.InviteStatusPending, expires.Add(time.Millisecond), false},
		{"redeemed before expiry", models.InviteStatusRedeemed, created.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invite := &models.Invite{Status: tt.status, ExpiresAt: expires}
			assert.Equal(t, tt.want, IsRedeemable(invite, tt.at))
		})
	}
}

func TestBuildInviteLink(t *testing.T) {
	invite := &models.Invite{Token: "deadbeefcafe"}

	t.Run("empty base URL rejected", func(t *testing.T) {
		_, err := BuildInviteLink("", "register", invite)
		require.Error(t, err)
	})

	t.Run("token survives a URL round trip", func(t *testing.T) {
		link, err := BuildInviteLink("https://arena.example.com/", "/register/", invite)
		require.NoError(t, err)
		assert.Equal(t, "https://arena.example.com/register?token=deadbeefcafe", link)

		parsed, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, invite.Token, parsed.Query().Get("token"))
	})
}

func TestInviteServiceIssue(t *testing.T) {
	now := date(2025, time.June, 1)
	teamID := 10

	t.Run("athlete invite by team manager", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		invite, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindAthlete,
			Email:    "  Novo@Atleta.COM ",
			TeamID:   &teamID,
			IssuerID: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "novo@atleta.com", invite.Email)
		assert.Equal(t, models.InviteStatusPending, invite.Status)
		assert.Equal(t, now.Add(7*24*time.Hour), invite.ExpiresAt)
		assert.Len(t, invite.Token, 32)
	})

	t.Run("athlete invite requires team", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		_, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindAthlete,
			Email:    "a@b.com",
			IssuerID: 1,
		})
		assert.ErrorIs(t, err, ErrInviteTeamRequired)
	})

	t.Run("athlete invite forbidden for outsiders", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		_, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindAthlete,
			Email:    "a@b.com",
			TeamID:   &teamID,
			IssuerID: 3,
		})
		assert.ErrorIs(t, err, ErrManagerActionForbidden)
	})

	t.Run("manager invite needs organizer role", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		_, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindManager,
			Email:    "a@b.com",
			IssuerID: 1,
		})
		assert.ErrorIs(t, err, ErrForbiddenOperation)

		invite, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindManager,
			Email:    "a@b.com",
			IssuerID: 2,
		})
		require.NoError(t, err)
		assert.Nil(t, invite.TeamID)
	})

	t.Run("manager invite must not carry a team", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		_, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindManager,
			Email:    "a@b.com",
			TeamID:   &teamID,
			IssuerID: 2,
		})
		assert.ErrorIs(t, err, ErrInviteTeamNotAllowed)
	})

	t.Run("empty email rejected", func(t *testing.T) {
		svc, _ := newTestInviteService(now)
		_, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindAthlete,
			Email:    "   ",
			TeamID:   &teamID,
			IssuerID: 1,
		})
		assert.ErrorIs(t, err, ErrEmailRequired)
	})
}

func TestInviteServiceRedeem(t *testing.T) {
	issued := date(2025, time.June, 1)
	teamID := 10

	issue := func(t *testing.T, svc *inviteService) *models.Invite {
		t.Helper()
		invite, err := svc.Issue(context.Background(), IssueInviteInput{
			Kind:     models.InviteKindAthlete,
			Email:    "a@b.com",
			TeamID:   &teamID,
			IssuerID: 1,
		})
		require.NoError(t, err)
		return invite
	}

	t.Run("pending invite redeems once", func(t *testing.T) {
		svc, _ := newTestInviteService(issued)
		invite := issue(t, svc)

		redeemed, err := svc.Redeem(context.Background(), invite.Token)
		require.NoError(t, err)
		assert.Equal(t, models.InviteStatusRedeemed, redeemed.Status)
		require.NotNil(t, redeemed.RedeemedAt)

		_, err = svc.Redeem(context.Background(), invite.Token)
		assert.ErrorIs(t, err, ErrInviteAlreadyRedeemed)
	})

	t.Run("expired invite", func(t *testing.T) {
		svc, _ := newTestInviteService(issued)
		invite := issue(t, svc)

		svc.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Second) }
		_, err := svc.Redeem(context.Background(), invite.Token)
		assert.ErrorIs(t, err, ErrInviteExpired)
	})

	t.Run("redemption at the exact expiry instant fails", func(t *testing.T) {
		svc, _ := newTestInviteService(issued)
		invite := issue(t, svc)

		svc.now = func() time.Time { return invite.ExpiresAt }
		_, err := svc.Redeem(context.Background(), invite.Token)
		assert.ErrorIs(t, err, ErrInviteExpired)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _ := newTestInviteService(issued)
		_, err := svc.Redeem(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrInviteNotFound)
	})
}

func TestInviteServiceGetByToken(t *testing.T) {
	issued := date(2025, time.June, 1)
	teamID := 10

	svc, _ := newTestInviteService(issued)
	invite, err := svc.Issue(context.Background(), IssueInviteInput{
		Kind:     models.InviteKindAthlete,
		Email:    "a@b.com",
		TeamID:   &teamID,
		IssuerID: 1,
	})
	require.NoError(t, err)

	t.Run("live invite is returned", func(t *testing.T) {
		got, err := svc.GetByToken(context.Background(), invite.Token)
		require.NoError(t, err)
		assert.Equal(t, invite.Email, got.Email)
	})

	t.Run("expired invite reported as such", func(t *testing.T) {
		svc.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
		_, err := svc.GetByToken(context.Background(), invite.Token)
		assert.ErrorIs(t, err, ErrInviteExpired)
	})
}

func TestInviteServiceListTeamInvites(t *testing.T) {
	issued := date(2025, time.June, 1)
	teamID := 10

	svc, repo := newTestInviteService(issued)

	live, err := svc.Issue(context.Background(), IssueInviteInput{
		Kind:     models.InviteKindAthlete,
		Email:    "live@b.com",
		TeamID:   &teamID,
		IssuerID: 1,
	})
	require.NoError(t, err)

	spent, err := svc.Issue(context.Background(), IssueInviteInput{
		Kind:     models.InviteKindAthlete,
		Email:    "spent@b.com",
		TeamID:   &teamID,
		IssuerID: 1,
	})
	require.NoError(t, err)
	_, err = repo.Redeem(context.Background(), spent.Token, issued.Add(time.Hour))
	require.NoError(t, err)

	t.Run("only the manager may list", func(t *testing.T) {
		_, err := svc.ListTeamInvites(context.Background(), teamID, 3)
		assert.ErrorIs(t, err, ErrManagerActionForbidden)
	})

	t.Run("redeemed invites are filtered out", func(t *testing.T) {
		invites, err := svc.ListTeamInvites(context.Background(), teamID, 1)
		require.NoError(t, err)
		require.Len(t, invites, 1)
		assert.Equal(t, live.Email, invites[0].Email)
	})
}
