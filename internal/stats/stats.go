// internal/stats/stats.go
//
// Read-side rollups: per-word win/loss/average aggregates and per-player
// records (wins, losses, average score, current and max streak). Both are
// recomputed from the attempts table on an interval and pushed into the
// players/puzzle_words tables plus the optional Redis boards.

package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/leaderboard"
	"github.com/smolfarm/skyrdle/internal/store"
)

// Service recomputes rollups. boards may be nil when Redis is disabled.
type Service struct {
	store  store.Store
	boards *leaderboard.Service
}

// New builds the rollup service.
func New(st store.Store, boards *leaderboard.Service) *Service {
	return &Service{store: st, boards: boards}
}

// Recompute runs the word and player rollups concurrently.
func (s *Service) Recompute(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.recomputeWords(ctx) })
	g.Go(func() error { return s.recomputePlayers(ctx) })
	return g.Wait()
}

// RunEvery recomputes on the given interval until ctx is done.
func (s *Service) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Recompute(ctx); err != nil {
				log.Error().Err(err).Msg("stats recompute failed")
			}
		}
	}
}

func (s *Service) recomputeWords(ctx context.Context) error {
	aggregates, err := s.store.AggregateWordStats(ctx)
	if err != nil {
		return err
	}
	for _, ws := range aggregates {
		if err := s.store.UpsertWordStats(ctx, ws); err != nil {
			return err
		}
	}
	log.Debug().Int("words", len(aggregates)).Msg("word stats updated")
	return nil
}

func (s *Service) recomputePlayers(ctx context.Context) error {
	dids, err := s.store.DistinctPlayers(ctx)
	if err != nil {
		return err
	}
	for _, did := range dids {
		attempts, err := s.store.AttemptsByPlayer(ctx, did)
		if err != nil {
			return err
		}
		ps := Rollup(did, attempts)
		if err := s.store.UpsertPlayerStats(ctx, ps); err != nil {
			return err
		}
		if s.boards != nil {
			if err := s.boards.SetStreak(ctx, did, ps.CurrentStreak); err != nil {
				log.Warn().Err(err).Str("did", did).Msg("streak board update failed")
			}
		}
	}
	log.Debug().Int("players", len(dids)).Msg("player stats updated")
	return nil
}

// Rollup folds a player's attempts, ordered by game number, into one
// stats row. The current streak is the trailing run of wins; an attempt
// still in Playing neither extends nor breaks a streak.
func Rollup(did string, attempts []*game.Attempt) store.PlayerStats {
	ps := store.PlayerStats{DID: did}
	totalGuesses, run := 0, 0
	for _, a := range attempts {
		switch a.State {
		case game.StateWon:
			ps.GamesWon++
			totalGuesses += len(a.Guesses)
			run++
			if run > ps.MaxStreak {
				ps.MaxStreak = run
			}
		case game.StateLost:
			ps.GamesLost++
			run = 0
		}
	}
	ps.CurrentStreak = run
	if ps.GamesWon > 0 {
		ps.AvgScore = float64(totalGuesses) / float64(ps.GamesWon)
	}
	return ps
}
