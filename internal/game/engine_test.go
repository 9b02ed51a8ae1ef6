package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smolfarm/skyrdle/internal/puzzle"
)

// stubStore is a minimal in-memory AttemptStore for engine tests.
type stubStore struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
	puzzles  map[string]*CustomPuzzle
	custom   map[string]*CustomAttempt
}

func newStubStore() *stubStore {
	return &stubStore{
		attempts: map[string]*Attempt{},
		puzzles:  map[string]*CustomPuzzle{},
		custom:   map[string]*CustomAttempt{},
	}
}

func (s *stubStore) FindAttempt(_ context.Context, did string, n int) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[dailyKey(did, n)]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Guesses = append([]Guess(nil), a.Guesses...)
	return &cp, nil
}

func (s *stubStore) SaveAttempt(_ context.Context, a *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	cp.Guesses = append([]Guess(nil), a.Guesses...)
	s.attempts[dailyKey(a.DID, a.GameNumber)] = &cp
	return nil
}

func (s *stubStore) FindCustomPuzzle(_ context.Context, id string) (*CustomPuzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.puzzles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) CreateCustomPuzzle(_ context.Context, p *CustomPuzzle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.puzzles[p.ID] = &cp
	return nil
}

func (s *stubStore) FindCustomAttempt(_ context.Context, customID, did string) (*CustomAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.custom[customKey(customID, did)]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Guesses = append([]Guess(nil), a.Guesses...)
	return &cp, nil
}

func (s *stubStore) SaveCustomAttempt(_ context.Context, a *CustomAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	cp.Guesses = append([]Guess(nil), a.Guesses...)
	s.custom[customKey(a.CustomID, a.DID)] = &cp
	return nil
}

type acceptSet map[string]struct{}

func (a acceptSet) IsAccepted(w string) bool {
	_, ok := a[w]
	return ok
}

type staticWords []string

func (s staticWords) Words() []string { return s }

// newTestEngine fixes the clock six days after the epoch, so game numbers
// 1 through 7 are playable and the single answer word is always CRANE.
func newTestEngine(t *testing.T, st AttemptStore) *Engine {
	t.Helper()
	epoch := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	idx := puzzle.NewIndexer(epoch, time.UTC)
	clock := func() time.Time { return epoch.Add(6 * 24 * time.Hour) }
	vocab := acceptSet{
		"CRANE": {}, "STARE": {}, "SPACE": {}, "SPEED": {}, "AUDIO": {}, "PLUMB": {},
	}
	return NewEngine(st, vocab, idx, staticWords{"CRANE"}, WithClock(clock))
}

func TestGetOrCreateAttemptIsIdempotent(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	a, err := e.GetOrCreateAttempt(ctx, "playerX", 7)
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, a.State)
	assert.Empty(t, a.Guesses)
	assert.Equal(t, "CRANE", a.TargetWord)

	_, err = e.SubmitGuess(ctx, "playerX", 7, "STARE")
	require.NoError(t, err)

	again, err := e.GetOrCreateAttempt(ctx, "playerX", 7)
	require.NoError(t, err)
	assert.Len(t, again.Guesses, 1, "existing attempt must not be reset")
}

func TestSubmitGuessWinStampsCommitment(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	_, err := e.SubmitGuess(ctx, "playerX", 7, "STARE")
	require.NoError(t, err)
	a, err := e.SubmitGuess(ctx, "playerX", 7, "CRANE")
	require.NoError(t, err)

	assert.Equal(t, StateWon, a.State)
	require.NotNil(t, a.CompletedAt)
	score, ok := a.Score()
	require.True(t, ok)
	assert.Equal(t, 2, score)
	// sha256("playerX|7|2")
	assert.Equal(t,
		"93412f98e49efc12f90b0e4fa2a6450bc3bffb7f26449b6b6eca2546309be789",
		a.ScoreCommitment)
}

func TestSubmitGuessLossUsesSentinelScore(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	var a *Attempt
	var err error
	for i := 0; i < 6; i++ {
		a, err = e.SubmitGuess(ctx, "did:plc:bob", 1, "STARE")
		require.NoError(t, err)
	}
	assert.Equal(t, StateLost, a.State)
	assert.Len(t, a.Guesses, 6)
	score, ok := a.Score()
	require.True(t, ok)
	assert.Equal(t, LostScore, score)
	// sha256("did:plc:bob|1|-1")
	assert.Equal(t,
		"39508d8a5b6c170440db0675d4fceaf829c0d1d327235bf708a9e4bd0cc0b32f",
		a.ScoreCommitment)

	_, err = e.SubmitGuess(ctx, "did:plc:bob", 1, "CRANE")
	assert.ErrorIs(t, err, ErrGameAlreadyOver)

	frozen, err := e.GetOrCreateAttempt(ctx, "did:plc:bob", 1)
	require.NoError(t, err)
	assert.Len(t, frozen.Guesses, 6, "history must not grow after the loss")
}

func TestSubmitGuessAfterWinIsRejected(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	a, err := e.SubmitGuess(ctx, "playerX", 7, "CRANE")
	require.NoError(t, err)
	require.Equal(t, StateWon, a.State)
	commitment := a.ScoreCommitment
	completed := *a.CompletedAt

	_, err = e.SubmitGuess(ctx, "playerX", 7, "STARE")
	assert.ErrorIs(t, err, ErrGameAlreadyOver)

	again, err := e.GetOrCreateAttempt(ctx, "playerX", 7)
	require.NoError(t, err)
	assert.Equal(t, commitment, again.ScoreCommitment)
	assert.True(t, completed.Equal(*again.CompletedAt))
}

func TestSubmitGuessValidation(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	_, err := e.SubmitGuess(ctx, "playerX", 0, "CRANE")
	assert.ErrorIs(t, err, ErrInvalidPuzzleNumber)

	_, err = e.SubmitGuess(ctx, "playerX", 8, "CRANE")
	assert.ErrorIs(t, err, ErrInvalidPuzzleNumber, "tomorrow's game is not playable")

	_, err = e.SubmitGuess(ctx, "playerX", 7, "CRAN")
	assert.ErrorIs(t, err, ErrInvalidGuessLength)

	_, err = e.SubmitGuess(ctx, "playerX", 7, "ZZZZZ")
	assert.ErrorIs(t, err, ErrWordNotAccepted)
}

func TestSubmitGuessLowercaseAccepted(t *testing.T) {
	e := newTestEngine(t, newStubStore())

	a, err := e.SubmitGuess(context.Background(), "playerX", 7, "crane")
	require.NoError(t, err)
	assert.Equal(t, StateWon, a.State)
	assert.Equal(t, "CRANE", a.Guesses[0].Word())
}

func TestConcurrentSubmissionsSerialize(t *testing.T) {
	e := newTestEngine(t, newStubStore())
	ctx := context.Background()

	// Both goroutines race to submit the winning word; exactly one may
	// append, the other must see the finished game.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.SubmitGuess(ctx, "playerX", 7, "CRANE")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, rejects int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrGameAlreadyOver)
			rejects++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, rejects)

	a, err := e.GetOrCreateAttempt(ctx, "playerX", 7)
	require.NoError(t, err)
	assert.Len(t, a.Guesses, 1)
}

func TestCustomPuzzleFlow(t *testing.T) {
	st := newStubStore()
	e := newTestEngine(t, st)
	ctx := context.Background()

	p, err := e.CreateCustomPuzzle(ctx, "did:plc:alice", "plumb")
	require.NoError(t, err)
	assert.Len(t, p.ID, 8)
	assert.Equal(t, "PLUMB", p.TargetWord)

	_, err = e.CreateCustomPuzzle(ctx, "did:plc:alice", "ZZZZZ")
	assert.ErrorIs(t, err, ErrWordNotAccepted)

	a, got, err := e.GetOrCreateCustomAttempt(ctx, p.ID, "did:plc:bob")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, StatePlaying, a.State)

	a, _, err = e.SubmitCustomGuess(ctx, p.ID, "did:plc:bob", "PLUMB")
	require.NoError(t, err)
	assert.Equal(t, StateWon, a.State)
	require.NotNil(t, a.CompletedAt)

	_, _, err = e.SubmitCustomGuess(ctx, p.ID, "did:plc:bob", "CRANE")
	assert.ErrorIs(t, err, ErrGameAlreadyOver)

	_, _, err = e.GetOrCreateCustomAttempt(ctx, "ffffffff", "did:plc:bob")
	assert.ErrorIs(t, err, ErrPuzzleNotFound)
}
