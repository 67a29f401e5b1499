package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrEmailRequired        = errors.New("email is required")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrEventNameRequired    = errors.New("event name is required")
	ErrRosterLocked         = errors.New("roster is locked: event has started")
	ErrRosterCapExceeded    = errors.New("roster cap exceeded")
	ErrAthleteAlreadyOnTeam = errors.New("athlete is already on a team")

	// Invite lifecycle terminal states
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInviteAlreadyRedeemed = errors.New("invite already redeemed")

	// Conflicts
	ErrProfileEmailConflict = errors.New("email address is already in use")
	ErrAthleteEmailConflict = errors.New("athlete email is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrEventNameConflict    = errors.New("event name already exists")
	ErrRosterConflict       = errors.New("athlete is already registered for this event")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrOrganizerOnly          = errors.New("only the event organizer can perform this action")
	ErrManagerActionForbidden = errors.New("only the team manager can perform this action")

	// Entity lookups
	ErrProfileNotFound = errors.New("profile not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrAthleteNotFound = errors.New("athlete not found")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrMatchNotFound   = errors.New("match not found")

	// Event lifecycle
	ErrEventInvalidDateRange        = errors.New("event end date must be after start date")
	ErrEventInvalidCaps             = errors.New("event roster caps must be positive")
	ErrEventInvalidAgeBounds        = errors.New("event max age must not be below min age")
	ErrEventPerSexCapsNotMixed      = errors.New("per-sex caps only apply to mixed category events")
	ErrEventInvalidStatus           = errors.New("invalid event status provided")
	ErrEventInvalidStatusTransition = errors.New("invalid event status transition")
	ErrEventNotScheduled            = errors.New("event is not in scheduled state")

	// Match scoring
	ErrMatchAlreadyFinished = errors.New("match already finished")
	ErrMatchInvalidScore    = errors.New("match scores must be non-negative")

	// Logo uploads
	ErrLogoUnsupportedType = errors.New("unsupported logo content type")
)
