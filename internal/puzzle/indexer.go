// internal/puzzle/indexer.go
//
// Daily puzzle indexing. Calendar time maps to a 1-indexed game number by
// counting civil days since a fixed epoch, evaluated in one canonical
// timezone so the number never depends on where a player happens to be.
// The word list cycles indefinitely once exhausted.

package puzzle

import (
	"errors"
	"time"
)

// ErrEmptyList is returned when content is requested but no puzzle words are
// loaded. This is an operational fault: the service refuses to serve puzzle
// traffic rather than inventing answers.
var ErrEmptyList = errors.New("puzzle: word list is empty")

// DefaultTimezone is the canonical zone for day boundaries.
const DefaultTimezone = "America/New_York"

// DefaultEpoch returns the reference instant defining game #1: midnight
// 2025-06-13 in the given zone.
func DefaultEpoch(loc *time.Location) time.Time {
	return time.Date(2025, time.June, 13, 0, 0, 0, 0, loc)
}

// Indexer maps instants to game numbers and game numbers to target words.
// It is pure given an epoch, a zone, and a word list; it has no notion of
// "now" and enforces no future-game policy (that is the engine's job).
type Indexer struct {
	epoch time.Time
	loc   *time.Location
}

// NewIndexer builds an Indexer for the given epoch and canonical zone.
func NewIndexer(epoch time.Time, loc *time.Location) *Indexer {
	return &Indexer{epoch: epoch.In(loc), loc: loc}
}

// NumberFor returns the 1-indexed game number for an instant. An instant one
// second before local midnight and one second after differ by exactly one,
// judged against the canonical zone's wall clock. Behavior for instants
// before the epoch is undefined; no such instants occur in operation.
func (i *Indexer) NumberFor(t time.Time) int {
	return civilDaysBetween(i.epoch, t.In(i.loc)) + 1
}

// WordFor returns the target word for a game number, cycling through the
// list once it is exhausted. Fails with ErrEmptyList when no words exist.
func (i *Indexer) WordFor(gameNumber int, words []string) (string, error) {
	if len(words) == 0 {
		return "", ErrEmptyList
	}
	return words[(gameNumber-1)%len(words)], nil
}

// civilDaysBetween counts whole calendar days from a to b, both already in
// the canonical zone. Working on truncated civil dates rather than raw
// elapsed duration keeps the count stable across DST transitions.
func civilDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
