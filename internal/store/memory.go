// internal/store/memory.go
//
// In-memory implementation of Store. Used in tests and when durability is
// not required; state is lost on restart. Concurrency-safe via RWMutex.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/smolfarm/skyrdle/internal/game"
)

type memory struct {
	mu             sync.RWMutex
	attempts       map[string]*game.Attempt       // keyed by did|gameNumber
	customPuzzles  map[string]*game.CustomPuzzle  // keyed by id
	customAttempts map[string]*game.CustomAttempt // keyed by customId|did
	words          []string
	playerStats    map[string]PlayerStats
	wordStats      map[int]WordStats
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		attempts:       make(map[string]*game.Attempt),
		customPuzzles:  make(map[string]*game.CustomPuzzle),
		customAttempts: make(map[string]*game.CustomAttempt),
		playerStats:    make(map[string]PlayerStats),
		wordStats:      make(map[int]WordStats),
	}
}

func attemptKey(did string, gameNumber int) string {
	return fmt.Sprintf("%s|%d", did, gameNumber)
}

// copyAttempt clones an attempt including its guess history, so callers can
// never reach the stored backing array through a returned value.
func copyAttempt(a *game.Attempt) *game.Attempt {
	cp := *a
	cp.Guesses = append([]game.Guess(nil), a.Guesses...)
	return &cp
}

func copyCustomAttempt(a *game.CustomAttempt) *game.CustomAttempt {
	cp := *a
	cp.Guesses = append([]game.Guess(nil), a.Guesses...)
	return &cp
}

func (m *memory) FindAttempt(ctx context.Context, did string, gameNumber int) (*game.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptKey(did, gameNumber)]
	if !ok {
		return nil, nil
	}
	return copyAttempt(a), nil
}

func (m *memory) SaveAttempt(ctx context.Context, a *game.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attemptKey(a.DID, a.GameNumber)] = copyAttempt(a)
	return nil
}

func (m *memory) FindCustomPuzzle(ctx context.Context, id string) (*game.CustomPuzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.customPuzzles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memory) CreateCustomPuzzle(ctx context.Context, p *game.CustomPuzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.customPuzzles[p.ID]; exists {
		return fmt.Errorf("custom puzzle %s already exists", p.ID)
	}
	cp := *p
	m.customPuzzles[p.ID] = &cp
	return nil
}

func (m *memory) FindCustomAttempt(ctx context.Context, customID, did string) (*game.CustomAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.customAttempts[customID+"|"+did]
	if !ok {
		return nil, nil
	}
	return copyCustomAttempt(a), nil
}

func (m *memory) SaveCustomAttempt(ctx context.Context, a *game.CustomAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customAttempts[a.CustomID+"|"+a.DID] = copyCustomAttempt(a)
	return nil
}

func (m *memory) PuzzleWords(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.words...), nil
}

func (m *memory) AppendPuzzleWord(ctx context.Context, word string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = append(m.words, strings.ToUpper(strings.TrimSpace(word)))
	return len(m.words), nil
}

func (m *memory) UnmirroredAttempts(ctx context.Context, limit int) ([]*game.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*game.Attempt
	for _, a := range m.attempts {
		if a.State.Terminal() && !a.Mirrored {
			out = append(out, copyAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DID == out[j].DID {
			return out[i].GameNumber < out[j].GameNumber
		}
		return out[i].DID < out[j].DID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) MarkMirrored(ctx context.Context, did string, gameNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.attempts[attemptKey(did, gameNumber)]; ok {
		a.Mirrored = true
	}
	return nil
}

func (m *memory) DistinctPlayers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, a := range m.attempts {
		if _, ok := seen[a.DID]; !ok {
			seen[a.DID] = struct{}{}
			out = append(out, a.DID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memory) AttemptsByPlayer(ctx context.Context, did string) ([]*game.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*game.Attempt
	for _, a := range m.attempts {
		if a.DID == did {
			out = append(out, copyAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

func (m *memory) UpsertPlayerStats(ctx context.Context, s PlayerStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerStats[s.DID] = s
	return nil
}

func (m *memory) FindPlayerStats(ctx context.Context, did string) (*PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.playerStats[did]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memory) TopStreaks(ctx context.Context, limit int) ([]PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PlayerStats, 0, len(m.playerStats))
	for _, s := range m.playerStats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentStreak == out[j].CurrentStreak {
			return out[i].DID < out[j].DID
		}
		return out[i].CurrentStreak > out[j].CurrentStreak
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) AggregateWordStats(ctx context.Context) ([]WordStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byNumber := make(map[int]*WordStats)
	totals := make(map[int]int)
	for _, a := range m.attempts {
		ws, ok := byNumber[a.GameNumber]
		if !ok {
			ws = &WordStats{GameNumber: a.GameNumber}
			byNumber[a.GameNumber] = ws
		}
		switch a.State {
		case game.StateWon:
			ws.GamesWon++
			totals[a.GameNumber] += len(a.Guesses)
		case game.StateLost:
			ws.GamesLost++
		}
	}
	var out []WordStats
	for n, ws := range byNumber {
		if ws.GamesWon > 0 {
			ws.AvgScore = float64(totals[n]) / float64(ws.GamesWon)
		}
		out = append(out, *ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}

func (m *memory) UpsertWordStats(ctx context.Context, s WordStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wordStats[s.GameNumber] = s
	return nil
}

func (m *memory) FindWordStats(ctx context.Context, gameNumber int) (*WordStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.wordStats[gameNumber]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memory) Close() error { return nil }
