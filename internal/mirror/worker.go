// internal/mirror/worker.go
//
// Write-behind mirroring of finished attempts into the player's portable
// repository. Each terminal attempt becomes one record in the score
// collection, rkey'd by its commitment digest, so re-runs and races cannot
// insert duplicates: a duplicate-key response from the repository means the
// attempt was already mirrored and is treated as success.

package mirror

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smolfarm/skyrdle/internal/atproto"
	"github.com/smolfarm/skyrdle/internal/config"
	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/score"
	"github.com/smolfarm/skyrdle/internal/store"
)

// Repository is the slice of the AT Protocol client the worker needs.
type Repository interface {
	CreateRecord(ctx context.Context, collection, rkey string, record any) error
	RecordExists(ctx context.Context, collection, rkey string) (bool, error)
}

// ScoreRecord is the wire shape of one mirrored result.
type ScoreRecord struct {
	PlayerDid  string    `json:"playerDid"`
	GameNumber int       `json:"gameNumber"`
	Score      int       `json:"score"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
	IsWin      bool      `json:"isWin"`
}

// Worker periodically scans for terminal, unmirrored attempts and pushes
// them to the repository.
type Worker struct {
	store store.Store
	repo  Repository
	cfg   config.MirrorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWorker builds a mirroring worker.
func NewWorker(st store.Store, repo Repository, cfg config.MirrorConfig) *Worker {
	return &Worker{
		store:  st,
		repo:   repo,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the periodic sync loop.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	log.Info().Dur("interval", w.cfg.Interval).Msg("mirror worker started")
	go w.run(ctx)
}

// Stop halts the loop and waits for the current pass to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	log.Info().Msg("mirror worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("mirror pass failed")
			}
		}
	}
}

// RunOnce performs a single mirroring pass.
func (w *Worker) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	logger := log.With().Str("run", runID).Logger()

	attempts, err := w.store.UnmirroredAttempts(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		logger.Debug().Msg("nothing to mirror")
		return nil
	}
	logger.Info().Int("count", len(attempts)).Msg("mirroring finished attempts")

	synced, failed := 0, 0
	for _, a := range attempts {
		if err := w.mirrorOne(ctx, a); err != nil {
			logger.Warn().Err(err).
				Str("did", a.DID).
				Int("gameNumber", a.GameNumber).
				Msg("mirror attempt failed")
			failed++
		} else {
			synced++
		}

		// Pace requests to stay under PDS rate limits.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.RecordDelay):
		}
	}
	logger.Info().Int("synced", synced).Int("failed", failed).Msg("mirror pass complete")
	return nil
}

// mirrorOne pushes one attempt. The rkey is recomputed from the same three
// public inputs the engine committed to, so both paths always agree byte
// for byte.
func (w *Worker) mirrorOne(ctx context.Context, a *game.Attempt) error {
	numeric, ok := a.Score()
	if !ok {
		return errors.New("attempt not terminal")
	}
	digest := score.Commit(a.DID, a.GameNumber, numeric)

	record := ScoreRecord{
		PlayerDid:  a.DID,
		GameNumber: a.GameNumber,
		Score:      numeric,
		Timestamp:  time.Now().UTC(),
		Hash:       digest,
		IsWin:      a.State == game.StateWon,
	}

	err := w.repo.CreateRecord(ctx, w.cfg.Collection, digest, record)
	switch {
	case err == nil, errors.Is(err, atproto.ErrDuplicateRecord):
		// Duplicate means a previous pass already wrote it: idempotent catch-up.
	default:
		// Some PDS implementations reject duplicates with an opaque error;
		// confirm before giving up.
		exists, checkErr := w.repo.RecordExists(ctx, w.cfg.Collection, digest)
		if checkErr != nil || !exists {
			return err
		}
	}
	return w.store.MarkMirrored(ctx, a.DID, a.GameNumber)
}
