package models

import "time"

// InviteKind distinguishes athlete invitations (bound to a team) from
// manager invitations (no team).
type InviteKind string

const (
	InviteKindAthlete InviteKind = "athlete"
	InviteKindManager InviteKind = "manager"
)

// InviteStatus is the stored redemption state. Expiry is derived from
// ExpiresAt, never stored.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusRedeemed InviteStatus = "redeemed"
)

// Invite is a single-use, time-limited credential granting registration
// rights to a named role. Invites are never deleted; redeemed and expired
// ones stay behind for auditing.
type Invite struct {
	ID         int          `json:"id" db:"id"`
	Token      string       `json:"-" db:"token"`
	Kind       InviteKind   `json:"kind" db:"kind"`
	Email      string       `json:"email" db:"email"`
	TeamID     *int         `json:"team_id,omitempty" db:"team_id"`
	CreatedBy  int          `json:"created_by" db:"created_by"`
	Status     InviteStatus `json:"status" db:"status"`
	ExpiresAt  time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	RedeemedAt *time.Time   `json:"redeemed_at,omitempty" db:"redeemed_at"`
}
