package handlers

import (
	"net/http"
	"time"

	"github.com/arenahub/event-system/middleware"
	"github.com/arenahub/event-system/models"
	"github.com/arenahub/event-system/services"
)

type AthleteHandler struct {
	athleteService services.AthleteService
}

func NewAthleteHandler(athleteService services.AthleteService) *AthleteHandler {
	return &AthleteHandler{athleteService: athleteService}
}

type athleteInput struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	BirthDate *string     `json:"birth_date"`
	Sex       *models.Sex `json:"sex"`
	TeamID    *int        `json:"team_id"`
}

func (in athleteInput) toModel() (*models.Athlete, error) {
	athlete := &models.Athlete{
		Name:   in.Name,
		Email:  in.Email,
		Sex:    in.Sex,
		TeamID: in.TeamID,
	}
	if in.BirthDate != nil {
		birth, err := time.Parse("2006-01-02", *in.BirthDate)
		if err != nil {
			return nil, err
		}
		athlete.BirthDate = &birth
	}
	return athlete, nil
}

func (h *AthleteHandler) CreateAthleteHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input athleteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	athlete, err := input.toModel()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.athleteService.Create(r.Context(), athlete, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"athlete": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) GetAthleteHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.GetByID(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) UpdateAthleteHandler(w http.ResponseWriter, r *http.Request) {
	athleteID, err := getIDFromURL(r, "athleteID")
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
		Name      *string     `json:"name"`
		Email     *string     `json:"email"`
		BirthDate *string     `json:"birth_date"`
		Sex       *models.Sex `json:"sex"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update := services.AthleteUpdateInput{
		Name:  input.Name,
		Email: input.Email,
		Sex:   input.Sex,
	}
	if input.BirthDate != nil {
		birth, err := time.Parse("2006-01-02", *input.BirthDate)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		update.BirthDate = &birth
	}

	athlete, err := h.athleteService.Update(r.Context(), athleteID, update, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AthleteHandler) ListTeamAthletesHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athletes, err := h.athleteService.ListByTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"athletes": athletes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
