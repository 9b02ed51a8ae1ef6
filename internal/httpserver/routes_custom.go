package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/httputil"
)

type customView struct {
	CustomGameID string                  `json:"customGameId"`
	Guesses      []game.Guess            `json:"guesses"`
	Status       game.State              `json:"status"`
	Keyboard     map[string]game.Verdict `json:"keyboard"`
	MaxGuesses   int                     `json:"maxGuesses"`
	TargetWord   string                  `json:"targetWord,omitempty"`
}

func (s *Server) customViewOf(p *game.CustomPuzzle, a *game.CustomAttempt) customView {
	v := customView{
		CustomGameID: p.ID,
		Guesses:      a.Guesses,
		Status:       a.State,
		Keyboard:     game.KeyStatuses(a.Guesses),
		MaxGuesses:   s.engine.MaxGuesses(),
	}
	if v.Guesses == nil {
		v.Guesses = []game.Guess{}
	}
	// The target stays hidden until this player's attempt is over, even
	// though other players may already have finished.
	if a.State.Terminal() {
		v.TargetWord = p.TargetWord
	}
	return v
}

// handleCreateCustom mints a sharable puzzle from a caller-chosen word.
func (s *Server) handleCreateCustom(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req struct {
		Word string `json:"word"`
	}
	if err := httputil.ReadJSON(r, &req, httputil.DefaultMaxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := s.engine.CreateCustomPuzzle(r.Context(), id.DID, req.Word)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"customGameId": p.ID})
}

// handleCustomState returns (creating if needed) the caller's attempt at a
// shared puzzle.
func (s *Server) handleCustomState(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	customID := chi.URLParam(r, "customID")

	a, p, err := s.engine.GetOrCreateCustomAttempt(r.Context(), customID, id.DID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.customViewOf(p, a))
}

func (s *Server) handleCustomGuess(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	customID := chi.URLParam(r, "customID")

	var req struct {
		Guess string `json:"guess"`
	}
	if err := httputil.ReadJSON(r, &req, httputil.DefaultMaxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, p, err := s.engine.SubmitCustomGuess(r.Context(), customID, id.DID, req.Guess)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.customViewOf(p, a))
}
