package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/arenahub/event-system/handlers"
	"github.com/arenahub/event-system/middleware"
	"github.com/arenahub/event-system/models"
)

// SetupRoutes mounts the whole API surface. Read endpoints are public;
// mutations sit behind JWT authentication and, where the service does not
// already enforce ownership, a role gate.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	teamHandler *handlers.TeamHandler,
	athleteHandler *handlers.AthleteHandler,
	inviteHandler *handlers.InviteHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	authenticate := middleware.Authenticate(jwtSecret)

	// Auth
	router.Post("/auth/signup", authHandler.SignUpHandler)
	router.Post("/auth/signin", authHandler.SignInHandler)
	router.Post("/auth/register-with-invite", authHandler.RegisterWithInviteHandler)

	// Invite inspection for the registration page (token in URL, no auth).
	router.Get("/invites/{token}", inviteHandler.GetInviteHandler)

	router.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListEventsHandler)
		r.Get("/{eventID}", eventHandler.GetEventHandler)
		r.Get("/{eventID}/matches", matchHandler.ListEventMatchesHandler)
		r.Get("/{eventID}/ws", webSocketHandler.SubscribeEventHandler)
		r.Get("/{eventID}/teams/{teamID}/roster", teamHandler.ListRosterHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authorize(models.RoleOrganizer))
				r.Post("/", eventHandler.CreateEventHandler)
				r.Put("/{eventID}", eventHandler.UpdateEventHandler)
				r.Patch("/{eventID}/status", eventHandler.UpdateEventStatusHandler)
				r.Delete("/{eventID}", eventHandler.DeleteEventHandler)
				r.Post("/{eventID}/matches/generate", matchHandler.GenerateScheduleHandler)
				r.Post("/{eventID}/logo", eventHandler.UploadEventLogoHandler)
			})

			r.Post("/{eventID}/teams/{teamID}/roster", teamHandler.AddRosterAthleteHandler)
			r.Delete("/{eventID}/teams/{teamID}/roster/{athleteID}", teamHandler.RemoveRosterAthleteHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeamHandler)
		r.Get("/{teamID}/athletes", athleteHandler.ListTeamAthletesHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", teamHandler.CreateTeamHandler)
			r.Put("/{teamID}", teamHandler.UpdateTeamHandler)
			r.Delete("/{teamID}", teamHandler.DeleteTeamHandler)
			r.Post("/{teamID}/logo", teamHandler.UploadTeamLogoHandler)

			r.Post("/{teamID}/invites", inviteHandler.InviteAthleteHandler)
			r.Get("/{teamID}/invites", inviteHandler.ListTeamInvitesHandler)
		})
	})

	router.Route("/athletes", func(r chi.Router) {
		r.Get("/{athleteID}", athleteHandler.GetAthleteHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", athleteHandler.CreateAthleteHandler)
			r.Put("/{athleteID}", athleteHandler.UpdateAthleteHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleOrganizer))
			r.Patch("/{matchID}/score", matchHandler.UpdateScoreHandler)
		})
	})

	// Manager invitations come from organizers only.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleOrganizer))
		r.Post("/invites/manager", inviteHandler.InviteManagerHandler)
	})
}
