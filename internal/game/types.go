// internal/game/types.go
//
// Core type definitions for the Skyrdle game engine.
// Defines:
//   - Verdict: per-letter result of an evaluated guess (correct/present/absent).
//   - State:   lifecycle of one attempt (Playing/Won/Lost).
//   - Guess:   one submitted word plus its evaluation, immutable once appended.
//   - Attempt: one player's state for one daily puzzle, keyed by (did, gameNumber).
//   - CustomPuzzle / CustomAttempt: the player-authored parallel model.

package game

import (
	"fmt"
	"strings"
	"time"
)

// Verdict describes a guessed letter's relationship to the target word at a
// given position.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictPresent Verdict = "present"
	VerdictAbsent  Verdict = "absent"
)

// State is the lifecycle of a single attempt. Playing is the only non-terminal
// state; once an attempt leaves Playing it never changes again.
type State string

const (
	StatePlaying State = "Playing"
	StateWon     State = "Won"
	StateLost    State = "Lost"
)

// Terminal reports whether the state is Won or Lost.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// ParseState converts an external string into a State. Anything outside the
// closed set is rejected rather than passed through.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StatePlaying, StateWon, StateLost:
		return State(s), nil
	}
	return "", fmt.Errorf("game: unknown state %q", s)
}

// Guess is one submitted word and its evaluation. Letters holds uppercase
// single-character strings; Evaluation is position-aligned with Letters.
type Guess struct {
	Letters    []string  `json:"letters"`
	Evaluation []Verdict `json:"evaluation"`
}

// Word reassembles the guessed word from its letters.
func (g Guess) Word() string { return strings.Join(g.Letters, "") }

// LostScore is the sentinel recorded when an attempt ends in Lost. It can
// never collide with a win score because win scores count guesses (>= 1).
const LostScore = -1

// Attempt is one player's progress on one daily puzzle. The (DID, GameNumber)
// pair is the natural key; exactly one Attempt exists per pair.
type Attempt struct {
	DID             string     `json:"did"`
	GameNumber      int        `json:"gameNumber"`
	TargetWord      string     `json:"targetWord"`
	Guesses         []Guess    `json:"guesses"`
	State           State      `json:"state"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ScoreCommitment string     `json:"scoreCommitment,omitempty"`
	Mirrored        bool       `json:"-"`
}

// Score returns the numeric score for a terminal attempt: the number of
// guesses taken when Won, LostScore when Lost. ok is false while the attempt
// is still Playing.
func (a *Attempt) Score() (score int, ok bool) {
	switch a.State {
	case StateWon:
		return len(a.Guesses), true
	case StateLost:
		return LostScore, true
	}
	return 0, false
}

// CustomPuzzle is a player-authored puzzle, keyed by an opaque short ID
// instead of a date-derived number.
type CustomPuzzle struct {
	ID         string    `json:"customGameId"`
	CreatorDID string    `json:"creatorDid"`
	TargetWord string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CustomAttempt is one participant's progress on one custom puzzle, keyed by
// (CustomID, DID). Same state machine as Attempt; the target word is revealed
// to the participant only after their own attempt is terminal.
type CustomAttempt struct {
	CustomID    string     `json:"customGameId"`
	DID         string     `json:"did"`
	Guesses     []Guess    `json:"guesses"`
	State       State      `json:"state"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
