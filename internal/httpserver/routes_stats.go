package httpserver

import (
	"net/http"
	"strconv"

	"github.com/smolfarm/skyrdle/internal/httputil"
	"github.com/smolfarm/skyrdle/internal/stats"
)

// handlePlayerStats computes the caller's stats live from their attempts.
// The periodic rollup keeps the players table fresh for leaderboards, but a
// player looking at their own numbers should never see a stale streak.
func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	attempts, err := s.store.AttemptsByPlayer(r.Context(), id.DID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	ps := stats.Rollup(id.DID, attempts)
	ps.Handle = id.Handle
	httputil.WriteJSON(w, http.StatusOK, ps)
}

// handleLeaderboard returns the top streaks, preferring the Redis board and
// falling back to the SQL rollup when Redis is not configured.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	if raw := r.URL.Query().Get("game"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, http.StatusBadRequest, "cannot access that game number")
			return
		}
		if s.boards == nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, "per-game leaderboards are not enabled")
			return
		}
		entries, err := s.boards.TopGameScores(r.Context(), n, limit)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"leaders": entries})
		return
	}

	if s.boards != nil {
		entries, err := s.boards.TopStreaks(r.Context(), limit)
		if err == nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{"leaders": entries})
			return
		}
		// Fall through to SQL on Redis trouble rather than erroring out.
	}

	leaders, err := s.store.TopStreaks(r.Context(), limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"leaders": leaders})
}
