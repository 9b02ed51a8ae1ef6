package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smolfarm/skyrdle/internal/atproto"
	"github.com/smolfarm/skyrdle/internal/config"
	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/score"
	"github.com/smolfarm/skyrdle/internal/store"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]ScoreRecord
	failOn  map[string]error
	exists  map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[string]ScoreRecord{},
		failOn:  map[string]error{},
		exists:  map[string]bool{},
	}
}

func (f *fakeRepo) CreateRecord(_ context.Context, _, rkey string, record any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[rkey]; ok {
		return err
	}
	if _, ok := f.records[rkey]; ok {
		return atproto.ErrDuplicateRecord
	}
	f.records[rkey] = record.(ScoreRecord)
	return nil
}

func (f *fakeRepo) RecordExists(_ context.Context, _, rkey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exists[rkey] {
		return true, nil
	}
	_, ok := f.records[rkey]
	return ok, nil
}

func testMirrorConfig() config.MirrorConfig {
	return config.MirrorConfig{
		Collection:  "farm.smol.games.skyrdle.player.score",
		BatchSize:   10,
		RecordDelay: time.Millisecond,
		Interval:    time.Hour,
	}
}

func saveTerminal(t *testing.T, st store.Store, did string, n int, state game.State, guesses int) {
	t.Helper()
	now := time.Now().UTC()
	a := &game.Attempt{
		DID: did, GameNumber: n, TargetWord: "CRANE",
		Guesses: make([]game.Guess, guesses), State: state, CompletedAt: &now,
	}
	require.NoError(t, st.SaveAttempt(context.Background(), a))
}

func TestRunOnceMirrorsTerminalAttempts(t *testing.T) {
	st := store.NewMemoryStore()
	repo := newFakeRepo()
	ctx := context.Background()

	saveTerminal(t, st, "did:plc:alice", 42, game.StateWon, 3)
	saveTerminal(t, st, "did:plc:bob", 42, game.StateLost, 6)

	w := NewWorker(st, repo, testMirrorConfig())
	require.NoError(t, w.RunOnce(ctx))

	winKey := score.Commit("did:plc:alice", 42, 3)
	rec, ok := repo.records[winKey]
	require.True(t, ok, "record rkey is the commitment digest")
	assert.Equal(t, 3, rec.Score)
	assert.True(t, rec.IsWin)
	assert.Equal(t, winKey, rec.Hash)

	lossKey := score.Commit("did:plc:bob", 42, game.LostScore)
	rec, ok = repo.records[lossKey]
	require.True(t, ok)
	assert.Equal(t, game.LostScore, rec.Score)
	assert.False(t, rec.IsWin)

	left, err := st.UnmirroredAttempts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left, "mirrored attempts are marked")
}

func TestRunOnceDuplicateIsSuccess(t *testing.T) {
	st := store.NewMemoryStore()
	repo := newFakeRepo()
	ctx := context.Background()

	saveTerminal(t, st, "did:plc:alice", 42, game.StateWon, 3)
	key := score.Commit("did:plc:alice", 42, 3)
	repo.records[key] = ScoreRecord{} // already mirrored by an earlier pass

	w := NewWorker(st, repo, testMirrorConfig())
	require.NoError(t, w.RunOnce(ctx))

	left, err := st.UnmirroredAttempts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRunOnceOpaqueErrorConfirmedByGetRecord(t *testing.T) {
	st := store.NewMemoryStore()
	repo := newFakeRepo()
	ctx := context.Background()

	saveTerminal(t, st, "did:plc:alice", 42, game.StateWon, 3)
	key := score.Commit("did:plc:alice", 42, 3)
	repo.failOn[key] = errors.New("500 something opaque")
	repo.exists[key] = true

	w := NewWorker(st, repo, testMirrorConfig())
	require.NoError(t, w.RunOnce(ctx))

	left, err := st.UnmirroredAttempts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left, "a confirmed existing record counts as mirrored")
}

func TestRunOnceFailureLeavesAttemptUnmirrored(t *testing.T) {
	st := store.NewMemoryStore()
	repo := newFakeRepo()
	ctx := context.Background()

	saveTerminal(t, st, "did:plc:alice", 42, game.StateWon, 3)
	saveTerminal(t, st, "did:plc:bob", 42, game.StateWon, 4)
	repo.failOn[score.Commit("did:plc:alice", 42, 3)] = errors.New("pds down")

	w := NewWorker(st, repo, testMirrorConfig())
	require.NoError(t, w.RunOnce(ctx), "per-attempt failures do not abort the pass")

	left, err := st.UnmirroredAttempts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1, "the failed attempt stays queued for the next pass")
	assert.Equal(t, "did:plc:alice", left[0].DID)
}

func TestStartStopIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	w := NewWorker(st, newFakeRepo(), testMirrorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	w.Start(ctx) // second start is a no-op
	w.Stop()
	w.Stop() // second stop is a no-op
}
