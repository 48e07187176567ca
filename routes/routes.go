package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/swiss-tournament/docs"
	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/middleware"
	"github.com/Dosada05/swiss-tournament/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Post("/auth/token", authHandler.Login)

		r.Route("/tournaments", func(r chi.Router) {
			r.With(requireOrganizer(opts.JWTSecret)...).Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Get("/players", tournamentHandler.CountPlayersHandler)
				r.Get("/standings", tournamentHandler.StandingsHandler)
				r.Get("/matches", matchHandler.ListHandler)

				r.Group(func(r chi.Router) {
					r.Use(requireOrganizer(opts.JWTSecret)...)

					r.Post("/players", tournamentHandler.RegisterPlayerHandler)
					r.Delete("/players", tournamentHandler.DeletePlayersHandler)
					r.Post("/matches", matchHandler.ReportHandler)
					r.Delete("/matches", matchHandler.DeleteHandler)
					r.Post("/pairings", matchHandler.PairingsHandler)
					r.Post("/rankings", matchHandler.RankingsHandler)
				})
			})
		})
	})
}

func requireOrganizer(secret []byte) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.Authenticate(secret),
		middleware.Authorize(services.RoleOrganizer),
	}
}
