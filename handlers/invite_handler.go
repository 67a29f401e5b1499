package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arenahub/event-system/middleware"
	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/services"
	"github.com/go-chi/chi/v5"
)

var errMissingToken = errors.New("missing invite token")

const inviteRegisterRoute = "register"

type InviteHandler struct {
	inviteService services.InviteService
	teamService   services.TeamService
	emailService  services.InviteMailer
	publicURL     string
}

func NewInviteHandler(
	inviteService services.InviteService,
	teamService services.TeamService,
	emailService services.InviteMailer,
	publicURL string,
) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		teamService:   teamService,
		emailService:  emailService,
		publicURL:     publicURL,
	}
}

// InviteAthleteHandler mints an athlete invite bound to a team and emails
// the registration link. A failed send never invalidates the invite: the
// link is returned regardless so the manager can share it manually.
func (h *InviteHandler) InviteAthleteHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invite, err := h.inviteService.Issue(r.Context(), services.IssueInviteInput{
		Kind:     models.InviteKindAthlete,
		Email:    input.Email,
		TeamID:   &teamID,
		IssuerID: currentUserID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	link, err := services.BuildInviteLink(h.publicURL, inviteRegisterRoute, invite)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	teamName := ""
	if team, teamErr := h.teamService.GetByID(r.Context(), teamID); teamErr == nil {
		teamName = team.Name
	}

	response := jsonResponse{
		"invite": jsonResponse{
			"kind":       invite.Kind,
			"email":      invite.Email,
			"team_id":    invite.TeamID,
			"expires_at": invite.ExpiresAt,
		},
		"invite_link": link,
	}

	if sendErr := h.emailService.SendAthleteInviteEmail(invite.Email, teamName, "", link); sendErr != nil {
		slog.Warn("athlete invite email dispatch failed",
			slog.String("email", invite.Email), slog.Any("error", sendErr))
		response["email_error"] = "falha ao enviar o email; compartilhe o link manualmente"
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InviteManagerHandler mints a team-less manager invite. Organizer only.
func (h *InviteHandler) InviteManagerHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invite, err := h.inviteService.Issue(r.Context(), services.IssueInviteInput{
		Kind:     models.InviteKindManager,
		Email:    input.Email,
		IssuerID: currentUserID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	link, err := services.BuildInviteLink(h.publicURL, inviteRegisterRoute, invite)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"invite": jsonResponse{
			"kind":       invite.Kind,
			"email":      invite.Email,
			"expires_at": invite.ExpiresAt,
		},
		"invite_link": link,
	}

	if sendErr := h.emailService.SendManagerInviteEmail(invite.Email, link); sendErr != nil {
		slog.Warn("manager invite email dispatch failed",
			slog.String("email", invite.Email), slog.Any("error", sendErr))
		response["email_error"] = "falha ao enviar o email; compartilhe o link manualmente"
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetInviteHandler lets the registration page inspect an invite before the
// user fills the form. Returns only non-sensitive fields.
func (h *InviteHandler) GetInviteHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		badRequestResponse(w, r, errMissingToken)
		return
	}

	invite, err := h.inviteService.GetByToken(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"invite": jsonResponse{
			"kind":       invite.Kind,
			"email":      invite.Email,
			"team_id":    invite.TeamID,
			"expires_at": invite.ExpiresAt,
		},
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) ListTeamInvitesHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invites, err := h.inviteService.ListTeamInvites(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": invites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
