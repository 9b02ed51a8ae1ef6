package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/smolfarm/skyrdle/internal/httputil"
)

func (s *Server) mountAdmin() {
	s.r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/words", s.handleListWords)
		r.Post("/words", s.handleAppendWord)
	})
}

// requireAdmin gates the curation endpoints behind a shared password checked
// against a bcrypt hash from config. No hash configured means no admin API.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := s.cfg.Admin.PasswordHash
		if hash == "" {
			httputil.WriteError(w, http.StatusForbidden, "admin API is disabled")
			return
		}
		password := r.Header.Get("X-Admin-Password")
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid admin password")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleListWords returns the curated answer list in play order.
func (s *Server) handleListWords(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.PuzzleWords(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"count": len(ws),
		"words": ws,
	})
}

// handleAppendWord adds a word to the end of the answer rotation. The word
// also joins the accepted-guess vocabulary so it can be played immediately.
func (s *Server) handleAppendWord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if err := httputil.ReadJSON(r, &req, httputil.DefaultMaxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	word := strings.ToUpper(strings.TrimSpace(req.Word))
	if len([]rune(word)) != s.engine.WordLength() {
		httputil.WriteError(w, http.StatusBadRequest, "word has the wrong length")
		return
	}

	gameNumber, err := s.store.AppendPuzzleWord(r.Context(), word)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.vocab.Add(word)
	if err := s.snap.Reload(r.Context()); err != nil {
		// The word is stored; the snapshot catches up on the next refresh.
		log.Warn().Err(err).Msg("snapshot reload after word append failed")
	}

	log.Info().Str("word", word).Int("gameNumber", gameNumber).Msg("puzzle word appended")
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"word":       word,
		"gameNumber": gameNumber,
	})
}
