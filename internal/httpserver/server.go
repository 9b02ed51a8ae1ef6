// internal/httpserver/server.go
//
// HTTP wiring for the Skyrdle backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeout,
//     request logging, CORS, JSON content type).
//   - OAuth client-metadata documents under /.well-known.
//   - Game endpoints (identity required): state, guess, summary, stats.
//   - Custom puzzle endpoints, player stats, leaderboard.
//   - Admin word-curation endpoints behind a bcrypt password gate.
//
// Identity arrives as a session token minted by POST /api/session after the
// external OAuth handshake, or (for first-party clients) as an explicit did
// parameter. Handlers only ever see the opaque DID string.

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/smolfarm/skyrdle/internal/config"
	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/httputil"
	"github.com/smolfarm/skyrdle/internal/leaderboard"
	"github.com/smolfarm/skyrdle/internal/puzzle"
	"github.com/smolfarm/skyrdle/internal/store"
	"github.com/smolfarm/skyrdle/internal/words"
)

// Server bundles the router with the engine and its collaborators.
type Server struct {
	r      *chi.Mux
	engine *game.Engine
	store  store.Store
	boards *leaderboard.Service // nil when Redis is disabled
	snap   *puzzle.Snapshot
	vocab  *words.Vocabulary
	cfg    *config.Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(engine *game.Engine, st store.Store, boards *leaderboard.Service,
	snap *puzzle.Snapshot, vocab *words.Vocabulary, cfg *config.Config) *Server {

	s := &Server{
		r:      chi.NewRouter(),
		engine: engine,
		store:  st,
		boards: boards,
		snap:   snap,
		vocab:  vocab,
		cfg:    cfg,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(requestLogger)
	s.r.Use(corsFromConfig(cfg.Server.ClientOrigin))

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.mountMetadata()

	s.r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireIdentity)

			r.Get("/game", s.handleCurrentGame)
			r.Get("/game/{gameNumber}", s.handleGameByNumber)
			r.Get("/game/{gameNumber}/summary", s.handleGameSummary)
			r.Post("/guess", s.handleGuess)

			r.Post("/custom", s.handleCreateCustom)
			r.Get("/custom/{customID}", s.handleCustomState)
			r.Post("/custom/{customID}/guess", s.handleCustomGuess)

			r.Get("/stats", s.handlePlayerStats)
		})

		// No identity needed for read-only aggregates.
		r.Get("/game/{gameNumber}/stats", s.handleWordStats)
		r.Get("/leaderboard", s.handleLeaderboard)
	})

	s.mountAdmin()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler exposes the router for an http.Server or tests.
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("reqId", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}

// corsFromConfig enables credentialed CORS for a single origin.
func corsFromConfig(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Password")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeEngineError maps the engine's error taxonomy to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidPuzzleNumber):
		httputil.WriteError(w, http.StatusBadRequest, "cannot access that game number")
	case errors.Is(err, game.ErrInvalidGuessLength):
		httputil.WriteError(w, http.StatusBadRequest, "guess has the wrong length")
	case errors.Is(err, game.ErrWordNotAccepted):
		httputil.WriteError(w, http.StatusBadRequest, "invalid word")
	case errors.Is(err, game.ErrGameAlreadyOver):
		httputil.WriteError(w, http.StatusConflict, "game is already over (Won or Lost)")
	case errors.Is(err, game.ErrPuzzleNotFound):
		httputil.WriteError(w, http.StatusNotFound, "custom game not found")
	case errors.Is(err, puzzle.ErrEmptyList):
		httputil.WriteError(w, http.StatusServiceUnavailable, "puzzle list not loaded")
	default:
		log.Error().Err(err).Msg("request failed")
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
