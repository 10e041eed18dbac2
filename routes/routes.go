package routes

import (
	"github.com/Dosada05/voting-system/config"
	"github.com/Dosada05/voting-system/handlers"
	"github.com/Dosada05/voting-system/middleware"
	"github.com/Dosada05/voting-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Auth,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	electionHandler *handlers.ElectionHandler,
	candidacyHandler *handlers.CandidacyHandler,
	ballotHandler *handlers.BallotHandler,
	resultsHandler *handlers.ResultsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Публичные маршруты: списки выборов, одобренные кандидаты,
	// опубликованные результаты.
	router.Get("/elections", electionHandler.List)
	router.Get("/elections/{electionID}", electionHandler.GetByID)
	router.Get("/elections/{electionID}/results", resultsHandler.ElectionResults)
	router.Get("/positions/{positionID}/candidacies", candidacyHandler.ListByPosition)
	router.Get("/positions/{positionID}/results", resultsHandler.PositionResults)

	// Живые события по выборам (смены фаз, публикация итогов).
	router.Get("/ws/elections/{electionID}", webSocketHandler.ServeWs)

	// Маршруты, требующие аутентификации.
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/users/me", userHandler.Me)
		r.Get("/candidacies/mine", candidacyHandler.Mine)

		r.Post("/positions/{positionID}/candidacies", candidacyHandler.Submit)
		r.Post("/candidacies/{candidateID}/photo", candidacyHandler.UploadPhoto)
		r.Post("/candidacies/{candidateID}/document", candidacyHandler.UploadDocument)

		r.Post("/positions/{positionID}/votes", ballotHandler.Cast)
		r.Get("/elections/{electionID}/ballot-status", ballotHandler.Status)
	})

	// Административные маршруты.
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireRole(models.RoleAdmin))

		r.Get("/users", userHandler.List)
		r.Patch("/users/{userID}/status", userHandler.SetStatus)

		r.Post("/elections", electionHandler.Create)
		r.Put("/elections/{electionID}", electionHandler.Update)
		r.Delete("/elections/{electionID}", electionHandler.Delete)
		r.Post("/elections/{electionID}/positions", electionHandler.AddPosition)
		r.Put("/positions/{positionID}", electionHandler.UpdatePosition)
		r.Delete("/positions/{positionID}", electionHandler.DeletePosition)

		r.Post("/elections/{electionID}/publish", electionHandler.Publish)
		r.Post("/elections/{electionID}/open-voting", electionHandler.OpenVoting)
		r.Post("/elections/{electionID}/close-voting", electionHandler.CloseVoting)
		r.Post("/elections/{electionID}/publish-results", electionHandler.PublishResults)
		r.Get("/elections/{electionID}/transitions", electionHandler.ListTransitions)

		// Те же обработчики, что и публичные, но с claims админа:
		// виден полный список кандидатур и предварительные итоги.
		r.Get("/positions/{positionID}/candidacies", candidacyHandler.ListByPosition)
		r.Get("/positions/{positionID}/results", resultsHandler.PositionResults)
		r.Get("/elections/{electionID}/results", resultsHandler.ElectionResults)

		r.Post("/candidacies/{candidateID}/review", candidacyHandler.Review)
	})
}
