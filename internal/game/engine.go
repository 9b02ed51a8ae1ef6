// internal/game/engine.go
//
// Game state machine for daily and custom attempts.
// Responsibilities:
//   - Lazily create attempts keyed by (did, gameNumber) or (customId, did).
//   - Validate and apply guesses (state, length, accepted vocabulary).
//   - Drive transitions: Playing → Won/Lost, one-way, write-once completion.
//   - Stamp CompletedAt and the score commitment on the terminal transition.
//   - Serialize mutation per attempt key so duplicate submissions cannot
//     append from a stale read of the guess history.
//
// The engine is the only writer of attempts. Evaluation, indexing, and
// commitment are synchronous and CPU-only; persistence is behind the
// AttemptStore boundary.

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/smolfarm/skyrdle/internal/puzzle"
	"github.com/smolfarm/skyrdle/internal/score"
)

// AttemptStore is the persistence boundary the engine requires. A missing
// record is reported as (nil, nil), not an error. Save operations are
// upserts on the natural key and atomic per record.
type AttemptStore interface {
	FindAttempt(ctx context.Context, did string, gameNumber int) (*Attempt, error)
	SaveAttempt(ctx context.Context, a *Attempt) error

	FindCustomPuzzle(ctx context.Context, id string) (*CustomPuzzle, error)
	CreateCustomPuzzle(ctx context.Context, p *CustomPuzzle) error
	FindCustomAttempt(ctx context.Context, customID, did string) (*CustomAttempt, error)
	SaveCustomAttempt(ctx context.Context, a *CustomAttempt) error
}

// Vocabulary is the accepted-guess membership test. It is a black box to the
// engine; the words package provides the file-backed implementation.
type Vocabulary interface {
	IsAccepted(word string) bool
}

// WordSource supplies the current puzzle word list snapshot.
type WordSource interface {
	Words() []string
}

const (
	// DefaultMaxGuesses is the reference guess budget per attempt.
	DefaultMaxGuesses = 6
	// DefaultWordLength is the reference target word length. Nothing in the
	// engine assumes it; guesses are checked against the actual target.
	DefaultWordLength = 5
)

// Engine owns attempt mutation. Identity arrives as an opaque, already
// authenticated DID string; the engine never inspects it.
type Engine struct {
	store      AttemptStore
	vocab      Vocabulary
	indexer    *puzzle.Indexer
	words      WordSource
	maxGuesses int
	wordLength int
	now        func() time.Time

	locks keyedLocks
}

// Option tweaks an Engine at construction.
type Option func(*Engine)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxGuesses overrides the guess budget.
func WithMaxGuesses(n int) Option {
	return func(e *Engine) { e.maxGuesses = n }
}

// WithWordLength overrides the target word length used when validating
// custom puzzle creation.
func WithWordLength(n int) Option {
	return func(e *Engine) { e.wordLength = n }
}

// NewEngine wires the state machine to its collaborators.
func NewEngine(store AttemptStore, vocab Vocabulary, indexer *puzzle.Indexer, words WordSource, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		vocab:      vocab,
		indexer:    indexer,
		words:      words,
		maxGuesses: DefaultMaxGuesses,
		wordLength: DefaultWordLength,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxGuesses returns the configured guess budget.
func (e *Engine) MaxGuesses() int { return e.maxGuesses }

// WordLength returns the configured target word length.
func (e *Engine) WordLength() int { return e.wordLength }

// CurrentGameNumber returns today's game number, the maximum playable one.
func (e *Engine) CurrentGameNumber() int { return e.indexer.NumberFor(e.now()) }

// GetOrCreateAttempt returns the attempt for (did, gameNumber), creating it
// in Playing with an empty history when none exists. It never mutates an
// existing attempt. Future game numbers and non-positive numbers are
// rejected with ErrInvalidPuzzleNumber.
func (e *Engine) GetOrCreateAttempt(ctx context.Context, did string, gameNumber int) (*Attempt, error) {
	if err := e.checkGameNumber(gameNumber); err != nil {
		return nil, err
	}
	unlock := e.locks.lock(dailyKey(did, gameNumber))
	defer unlock()
	return e.getOrCreateLocked(ctx, did, gameNumber)
}

// SubmitGuess applies one guess to the attempt for (did, gameNumber) and
// returns the updated attempt. On the terminal transition it stamps
// CompletedAt and the score commitment, exactly once. Submissions against a
// finished attempt fail with ErrGameAlreadyOver and change nothing.
func (e *Engine) SubmitGuess(ctx context.Context, did string, gameNumber int, guessWord string) (*Attempt, error) {
	if err := e.checkGameNumber(gameNumber); err != nil {
		return nil, err
	}
	unlock := e.locks.lock(dailyKey(did, gameNumber))
	defer unlock()

	a, err := e.getOrCreateLocked(ctx, did, gameNumber)
	if err != nil {
		return nil, err
	}

	guess, finished, err := e.applyGuess(a.State, a.TargetWord, a.Guesses, guessWord)
	if err != nil {
		return nil, err
	}
	a.Guesses = append(a.Guesses, guess)
	if finished != StatePlaying {
		a.State = finished
		completed := e.now()
		a.CompletedAt = &completed
		s, _ := a.Score()
		a.ScoreCommitment = score.Commit(a.DID, a.GameNumber, s)
		log.Info().
			Str("did", a.DID).
			Int("gameNumber", a.GameNumber).
			Str("state", string(a.State)).
			Int("score", s).
			Msg("attempt finished")
	}
	if err := e.store.SaveAttempt(ctx, a); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	return a, nil
}

// Summary renders the share text for a finished attempt.
func (e *Engine) Summary(a *Attempt) string {
	return Summary(a.GameNumber, a.Guesses, a.State, e.maxGuesses)
}

// CreateCustomPuzzle registers a player-authored puzzle. The target word
// must have the configured length and be in the accepted vocabulary.
func (e *Engine) CreateCustomPuzzle(ctx context.Context, creatorDID, targetWord string) (*CustomPuzzle, error) {
	targetWord = strings.ToUpper(strings.TrimSpace(targetWord))
	if utf8.RuneCountInString(targetWord) != e.wordLength {
		return nil, ErrInvalidGuessLength
	}
	if !e.vocab.IsAccepted(targetWord) {
		return nil, ErrWordNotAccepted
	}
	p := &CustomPuzzle{
		ID:         newCustomID(),
		CreatorDID: creatorDID,
		TargetWord: targetWord,
		CreatedAt:  e.now(),
	}
	if err := e.store.CreateCustomPuzzle(ctx, p); err != nil {
		return nil, fmt.Errorf("create custom puzzle: %w", err)
	}
	log.Info().Str("customId", p.ID).Str("creator", creatorDID).Msg("custom puzzle created")
	return p, nil
}

// GetOrCreateCustomAttempt returns the participant's attempt on a custom
// puzzle, creating it lazily. The puzzle is returned alongside so callers
// can reveal the target word once the attempt is terminal.
func (e *Engine) GetOrCreateCustomAttempt(ctx context.Context, customID, did string) (*CustomAttempt, *CustomPuzzle, error) {
	p, err := e.store.FindCustomPuzzle(ctx, customID)
	if err != nil {
		return nil, nil, fmt.Errorf("find custom puzzle: %w", err)
	}
	if p == nil {
		return nil, nil, ErrPuzzleNotFound
	}
	unlock := e.locks.lock(customKey(customID, did))
	defer unlock()

	a, err := e.getOrCreateCustomLocked(ctx, customID, did)
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

// SubmitCustomGuess applies one guess to a participant's custom attempt.
// Same machine as SubmitGuess; custom attempts carry no score commitment
// because they have no game number to commit to.
func (e *Engine) SubmitCustomGuess(ctx context.Context, customID, did, guessWord string) (*CustomAttempt, *CustomPuzzle, error) {
	p, err := e.store.FindCustomPuzzle(ctx, customID)
	if err != nil {
		return nil, nil, fmt.Errorf("find custom puzzle: %w", err)
	}
	if p == nil {
		return nil, nil, ErrPuzzleNotFound
	}
	unlock := e.locks.lock(customKey(customID, did))
	defer unlock()

	a, err := e.getOrCreateCustomLocked(ctx, customID, did)
	if err != nil {
		return nil, nil, err
	}

	guess, finished, err := e.applyGuess(a.State, p.TargetWord, a.Guesses, guessWord)
	if err != nil {
		return nil, nil, err
	}
	a.Guesses = append(a.Guesses, guess)
	if finished != StatePlaying {
		a.State = finished
		completed := e.now()
		a.CompletedAt = &completed
	}
	if err := e.store.SaveCustomAttempt(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("save custom attempt: %w", err)
	}
	return a, p, nil
}

// applyGuess runs the shared validation and evaluation for one guess and
// returns the evaluated Guess plus the resulting state. It does not mutate.
func (e *Engine) applyGuess(state State, targetWord string, history []Guess, guessWord string) (Guess, State, error) {
	if state != StatePlaying {
		return Guess{}, state, ErrGameAlreadyOver
	}
	guessWord = strings.ToUpper(strings.TrimSpace(guessWord))
	if utf8.RuneCountInString(guessWord) != utf8.RuneCountInString(targetWord) {
		return Guess{}, state, ErrInvalidGuessLength
	}
	if !e.vocab.IsAccepted(guessWord) {
		return Guess{}, state, ErrWordNotAccepted
	}

	evals := Evaluate(guessWord, targetWord)
	letters := make([]string, 0, len(evals))
	for _, r := range guessWord {
		letters = append(letters, string(r))
	}
	guess := Guess{Letters: letters, Evaluation: evals}

	next := StatePlaying
	switch {
	case AllCorrect(evals):
		next = StateWon
	case len(history)+1 >= e.maxGuesses:
		next = StateLost
	}
	return guess, next, nil
}

func (e *Engine) getOrCreateLocked(ctx context.Context, did string, gameNumber int) (*Attempt, error) {
	a, err := e.store.FindAttempt(ctx, did, gameNumber)
	if err != nil {
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	if a != nil {
		return a, nil
	}
	target, err := e.indexer.WordFor(gameNumber, e.words.Words())
	if err != nil {
		return nil, err
	}
	a = &Attempt{
		DID:        did,
		GameNumber: gameNumber,
		TargetWord: target,
		Guesses:    []Guess{},
		State:      StatePlaying,
	}
	if err := e.store.SaveAttempt(ctx, a); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	return a, nil
}

func (e *Engine) getOrCreateCustomLocked(ctx context.Context, customID, did string) (*CustomAttempt, error) {
	a, err := e.store.FindCustomAttempt(ctx, customID, did)
	if err != nil {
		return nil, fmt.Errorf("find custom attempt: %w", err)
	}
	if a != nil {
		return a, nil
	}
	a = &CustomAttempt{
		CustomID: customID,
		DID:      did,
		Guesses:  []Guess{},
		State:    StatePlaying,
	}
	if err := e.store.SaveCustomAttempt(ctx, a); err != nil {
		return nil, fmt.Errorf("create custom attempt: %w", err)
	}
	return a, nil
}

// checkGameNumber rejects non-positive numbers and numbers beyond today's.
func (e *Engine) checkGameNumber(gameNumber int) error {
	if gameNumber < 1 || gameNumber > e.CurrentGameNumber() {
		return fmt.Errorf("%w: %d", ErrInvalidPuzzleNumber, gameNumber)
	}
	return nil
}

func dailyKey(did string, gameNumber int) string {
	return fmt.Sprintf("daily|%s|%d", did, gameNumber)
}

func customKey(customID, did string) string {
	return "custom|" + customID + "|" + did
}

// newCustomID returns a compact 8-hex-char identifier for custom puzzles.
func newCustomID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// keyedLocks serializes mutation per attempt key. Two concurrent guess
// submissions for the same attempt queue behind one mutex; the loser then
// re-reads the finished attempt and fails with ErrGameAlreadyOver instead
// of appending from a stale history.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
