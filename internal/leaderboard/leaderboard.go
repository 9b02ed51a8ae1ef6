// internal/leaderboard/leaderboard.go
//
// Redis-backed leaderboard rollups: a global streak board and a per-game
// guess board, both ZSETs. Redis is optional; when it is not configured the
// read side falls back to the SQLite players table.

package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	streakKey    = "skyrdle:board:streak"
	dailyKeyStem = "skyrdle:board:game:%d"
)

// Entry is one leaderboard row.
type Entry struct {
	DID   string `json:"did"`
	Score int    `json:"score"`
}

// Service wraps the Redis client with board operations.
type Service struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*Service, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Service{client: client}, nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client) *Service { return &Service{client: client} }

// Close releases the Redis connection.
func (s *Service) Close() error { return s.client.Close() }

// SetStreak records a player's current streak on the global board.
func (s *Service) SetStreak(ctx context.Context, did string, streak int) error {
	err := s.client.ZAdd(ctx, streakKey, redis.Z{Score: float64(streak), Member: did}).Err()
	if err != nil {
		return fmt.Errorf("setting streak: %w", err)
	}
	return nil
}

// TopStreaks returns the highest current streaks, best first.
func (s *Service) TopStreaks(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, streakKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading streak board: %w", err)
	}
	return toEntries(zs), nil
}

// RecordGameScore records a win's guess count on the per-game board. Lower
// is better; losses are not ranked.
func (s *Service) RecordGameScore(ctx context.Context, gameNumber int, did string, guesses int) error {
	key := fmt.Sprintf(dailyKeyStem, gameNumber)
	err := s.client.ZAdd(ctx, key, redis.Z{Score: float64(guesses), Member: did}).Err()
	if err != nil {
		return fmt.Errorf("recording game score: %w", err)
	}
	return nil
}

// TopGameScores returns the fewest-guess finishers for one game number.
func (s *Service) TopGameScores(ctx context.Context, gameNumber, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	key := fmt.Sprintf(dailyKeyStem, gameNumber)
	zs, err := s.client.ZRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading game board: %w", err)
	}
	return toEntries(zs), nil
}

func toEntries(zs []redis.Z) []Entry {
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		did, _ := z.Member.(string)
		out = append(out, Entry{DID: did, Score: int(z.Score)})
	}
	return out
}
