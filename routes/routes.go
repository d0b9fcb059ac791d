package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/tonnahe171051/poolmate-sub002/docs"
	"github.com/tonnahe171051/poolmate-sub002/handlers"
	"github.com/tonnahe171051/poolmate-sub002/middleware"
)

// Options собирает зависимости маршрутизатора.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Metrics        http.Handler

	TournamentHandler *handlers.TournamentHandler
	BracketHandler    *handlers.BracketHandler
	MatchHandler      *handlers.MatchHandler
	StageHandler      *handlers.StageHandler
	WebSocketHandler  *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// WebSocket не проходит через таймаут
	router.Get("/ws/tournaments/{tournamentID}", opts.WebSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		// Публичные маршруты для просмотра
		r.Get("/tournaments", opts.TournamentHandler.ListHandler)
		r.Get("/tournaments/{tournamentID}", opts.TournamentHandler.GetByIDHandler)
		r.Get("/tournaments/{tournamentID}/players", opts.TournamentHandler.ListPlayersHandler)
		r.Get("/tournaments/{tournamentID}/stages", opts.TournamentHandler.ListStagesHandler)
		r.Get("/tournaments/{tournamentID}/bracket", opts.BracketHandler.GetHandler)
		r.Get("/tournaments/{tournamentID}/matches", opts.MatchHandler.ListTournamentMatchesHandler)
		r.Get("/matches/{matchID}", opts.MatchHandler.GetHandler)
		r.Get("/matches/{matchID}/lock", opts.MatchHandler.GetLockHandler)
		r.Get("/stages/{stageID}/standings", opts.StageHandler.StandingsHandler)

		// Защищенные маршруты для организаторов и судей
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret))

			r.Post("/tournaments", opts.TournamentHandler.CreateHandler)
			r.Post("/tournaments/{tournamentID}/players", opts.TournamentHandler.RegisterPlayerHandler)
			r.Post("/tournaments/{tournamentID}/bracket", opts.BracketHandler.CreateHandler)

			r.Patch("/matches/{matchID}", opts.MatchHandler.UpdateHandler)
			r.Post("/matches/{matchID}/start", opts.MatchHandler.StartHandler)
			r.Post("/matches/{matchID}/correction", opts.MatchHandler.CorrectHandler)
			r.Post("/matches/{matchID}/lock", opts.MatchHandler.AcquireLockHandler)
			r.Delete("/matches/{matchID}/lock", opts.MatchHandler.ReleaseLockHandler)

			r.Post("/stages/{stageID}/settle", opts.StageHandler.SettleHandler)
			r.Post("/stages/{stageID}/complete", opts.StageHandler.CompleteHandler)
		})
	})
}
