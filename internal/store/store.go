// internal/store/store.go
//
// Persistence interface for attempts, custom puzzles, the curated puzzle
// word list, and rollup rows. Implementations: SQLite (production) and
// memory (tests). Lookups report a missing record as (nil, nil); saves are
// upserts on the natural key and atomic per record. No cross-record
// transactions are assumed by callers.

package store

import (
	"context"
	"time"

	"github.com/smolfarm/skyrdle/internal/game"
)

// PlayerStats is the per-player rollup row maintained by the stats job.
type PlayerStats struct {
	DID           string    `json:"did"`
	Handle        string    `json:"handle,omitempty"`
	GamesWon      int       `json:"gamesWon"`
	GamesLost     int       `json:"gamesLost"`
	AvgScore      float64   `json:"averageScore"`
	CurrentStreak int       `json:"currentStreak"`
	MaxStreak     int       `json:"maxStreak"`
	UpdatedAt     time.Time `json:"-"`
}

// WordStats is the per-game rollup row maintained by the stats job.
type WordStats struct {
	GameNumber int     `json:"gameNumber"`
	GamesWon   int     `json:"gamesWon"`
	GamesLost  int     `json:"gamesLost"`
	AvgScore   float64 `json:"avgScore"`
}

// Store is the full persistence surface. It embeds the narrow boundary the
// game engine depends on.
type Store interface {
	game.AttemptStore

	// Puzzle word list, ordered by game number. Append-only: words are never
	// reordered once assigned a number.
	PuzzleWords(ctx context.Context) ([]string, error)
	AppendPuzzleWord(ctx context.Context, word string) (gameNumber int, err error)

	// Mirroring bookkeeping.
	UnmirroredAttempts(ctx context.Context, limit int) ([]*game.Attempt, error)
	MarkMirrored(ctx context.Context, did string, gameNumber int) error

	// Rollups.
	DistinctPlayers(ctx context.Context) ([]string, error)
	AttemptsByPlayer(ctx context.Context, did string) ([]*game.Attempt, error)
	UpsertPlayerStats(ctx context.Context, s PlayerStats) error
	FindPlayerStats(ctx context.Context, did string) (*PlayerStats, error)
	TopStreaks(ctx context.Context, limit int) ([]PlayerStats, error)
	AggregateWordStats(ctx context.Context) ([]WordStats, error)
	UpsertWordStats(ctx context.Context, s WordStats) error
	FindWordStats(ctx context.Context, gameNumber int) (*WordStats, error)

	Close() error
}
