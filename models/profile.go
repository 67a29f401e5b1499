package models

import "time"

// UserRole mirrors the user_roles assignments.
type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleManager   UserRole = "manager"
	RoleAthlete   UserRole = "athlete"
)

type Profile struct {
	ID           int       `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
