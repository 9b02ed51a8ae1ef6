package puzzle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ListSource loads the ordered puzzle word list from wherever it is curated.
type ListSource interface {
	PuzzleWords(ctx context.Context) ([]string, error)
}

// Snapshot holds a read-mostly copy of the puzzle word list, refreshed on an
// interval. Readers see a consistent slice; staleness is bounded by the
// refresh interval, an operational parameter.
type Snapshot struct {
	source ListSource

	mu    sync.RWMutex
	words []string
}

// NewSnapshot loads the list once, failing if the source fails or the list
// is empty so a misconfigured service refuses to start.
func NewSnapshot(ctx context.Context, source ListSource) (*Snapshot, error) {
	s := &Snapshot{source: source}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Words returns the current snapshot. Callers must not mutate the slice.
func (s *Snapshot) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.words
}

// Reload replaces the snapshot from the source. An empty result is rejected
// and the previous snapshot (if any) is kept.
func (s *Snapshot) Reload(ctx context.Context) error {
	words, err := s.source.PuzzleWords(ctx)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return ErrEmptyList
	}
	s.mu.Lock()
	s.words = words
	s.mu.Unlock()
	return nil
}

// RefreshEvery reloads the snapshot on the given interval until ctx is done.
// Reload failures keep the previous snapshot and are logged, not fatal.
func (s *Snapshot) RefreshEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("puzzle list reload failed, keeping previous snapshot")
			}
		}
	}
}
