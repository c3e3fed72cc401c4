package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flipperliga/league-system/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	corsAllowedOrigins []string,
	tournamentHandler *handlers.TournamentHandler,
	roundHandler *handlers.RoundHandler,
	matchHandler *handlers.MatchHandler,
	standingsHandler *handlers.StandingsHandler,
	finalHandler *handlers.FinalHandler,
	ratingHandler *handlers.RatingHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.CreateHandler)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByCodeHandler)
			r.Delete("/", tournamentHandler.DeleteHandler)

			r.Post("/players", tournamentHandler.AddPlayerHandler)
			r.Post("/machines", tournamentHandler.AddMachineHandler)

			r.Post("/rounds", roundHandler.CreateHandler)
			r.Get("/rounds", roundHandler.ListHandler)

			r.Get("/standings", standingsHandler.LiveHandler)

			r.Post("/finish", tournamentHandler.FinishHandler)
			r.Get("/results", tournamentHandler.ResultsHandler)
			r.Post("/recalc-elo", ratingHandler.RecalcHandler)

			r.Post("/final", finalHandler.StartHandler)
			r.Get("/final", finalHandler.StateHandler)
			r.Post("/final/games", finalHandler.AddGameHandler)
		})
	})

	router.Get("/rounds/{roundID}", roundHandler.GetHandler)

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", matchHandler.GetHandler)
		r.Post("/result", matchHandler.SubmitResultHandler)
		r.Put("/start-order", matchHandler.SetStartOrderHandler)
		r.Put("/players/{playerID}/position", matchHandler.SetPositionHandler)
		r.Put("/players/{playerID}/score", matchHandler.SetScoreHandler)
		r.Put("/players/{playerID}/time", matchHandler.SetTimeHandler)
	})

	router.Get("/standings/season", standingsHandler.SeasonHandler)

	router.Post("/profiles", ratingHandler.CreateProfileHandler)
	router.Get("/profiles/{profileID}", ratingHandler.GetProfileHandler)

	router.Get("/ws/{code}", webSocketHandler.ServeWs)
}
