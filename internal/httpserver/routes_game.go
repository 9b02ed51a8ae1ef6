package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/httputil"
)

// attemptView is the wire shape shared by every daily-game endpoint. The
// target word and commitment only appear once the attempt is terminal.
type attemptView struct {
	GameNumber      int                     `json:"gameNumber"`
	Guesses         []game.Guess            `json:"guesses"`
	Status          game.State              `json:"status"`
	Keyboard        map[string]game.Verdict `json:"keyboard"`
	MaxGuesses      int                     `json:"maxGuesses"`
	TargetWord      string                  `json:"targetWord,omitempty"`
	Score           *int                    `json:"score,omitempty"`
	ScoreCommitment string                  `json:"scoreCommitment,omitempty"`
	CompletedAt     string                  `json:"completedAt,omitempty"`
}

func (s *Server) viewOf(a *game.Attempt) attemptView {
	v := attemptView{
		GameNumber: a.GameNumber,
		Guesses:    a.Guesses,
		Status:     a.State,
		Keyboard:   game.KeyStatuses(a.Guesses),
		MaxGuesses: s.engine.MaxGuesses(),
	}
	if v.Guesses == nil {
		v.Guesses = []game.Guess{}
	}
	if a.State.Terminal() {
		v.TargetWord = a.TargetWord
		v.ScoreCommitment = a.ScoreCommitment
		if score, ok := a.Score(); ok {
			v.Score = &score
		}
		if a.CompletedAt != nil {
			v.CompletedAt = a.CompletedAt.UTC().Format(time.RFC3339)
		}
	}
	return v
}

// handleCurrentGame returns (creating if needed) today's attempt.
func (s *Server) handleCurrentGame(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	n := s.engine.CurrentGameNumber()
	a, err := s.engine.GetOrCreateAttempt(r.Context(), id.DID, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.viewOf(a))
}

// handleGameByNumber returns the caller's attempt at a past (or current) game.
func (s *Server) handleGameByNumber(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	n, ok := gameNumberParam(w, r)
	if !ok {
		return
	}
	a, err := s.engine.GetOrCreateAttempt(r.Context(), id.DID, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.viewOf(a))
}

// handleGuess evaluates one guess against the named game.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req struct {
		GameNumber int    `json:"gameNumber"`
		Guess      string `json:"guess"`
	}
	if err := httputil.ReadJSON(r, &req, httputil.DefaultMaxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.engine.SubmitGuess(r.Context(), id.DID, req.GameNumber, req.Guess)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if s.boards != nil && a.State == game.StateWon {
		if score, ok := a.Score(); ok {
			if err := s.boards.RecordGameScore(r.Context(), a.GameNumber, a.DID, score); err != nil {
				log.Warn().Err(err).Int("gameNumber", a.GameNumber).Msg("record game score failed")
			}
		}
	}
	httputil.WriteJSON(w, http.StatusOK, s.viewOf(a))
}

// handleGameSummary returns the emoji share text for a finished attempt.
func (s *Server) handleGameSummary(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	n, ok := gameNumberParam(w, r)
	if !ok {
		return
	}
	a, err := s.engine.GetOrCreateAttempt(r.Context(), id.DID, n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	text := s.engine.Summary(a)
	if text == "" {
		httputil.WriteError(w, http.StatusConflict, "game is not finished")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"summary": text})
}

// handleWordStats returns the aggregate difficulty stats for one game number.
func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	n, ok := gameNumberParam(w, r)
	if !ok {
		return
	}
	ws, err := s.store.FindWordStats(r.Context(), n)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if ws == nil {
		httputil.WriteError(w, http.StatusNotFound, "no stats for that game yet")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ws)
}

func gameNumberParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "gameNumber"))
	if err != nil || n < 1 {
		httputil.WriteError(w, http.StatusBadRequest, "cannot access that game number")
		return 0, false
	}
	return n, true
}
