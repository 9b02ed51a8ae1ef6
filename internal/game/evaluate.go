// internal/game/evaluate.go
//
// Guess evaluation: the classic two-pass algorithm with correct duplicate
// handling. Exact matches must all be consumed before any present-match is
// resolved; among multiple eligible guess positions for the same letter the
// leftmost unresolved one wins. The order is outcome-determining.

package game

import "strings"

// Evaluate scores guess against target and returns one Verdict per position.
//
// Both words are normalized to uppercase before comparison. The caller must
// guarantee equal lengths; this function assigns exactly one verdict per
// guess position and never fails.
//
// Pass 1 marks exact positions correct and consumes those target letters.
// Pass 2 walks the remaining positions left to right, claiming one unconsumed
// occurrence of each letter (present) or marking absent.
func Evaluate(guess, target string) []Verdict {
	guessRunes := []rune(strings.ToUpper(guess))
	targetRunes := []rune(strings.ToUpper(target))

	verdicts := make([]Verdict, len(guessRunes))

	// Unconsumed target letters remaining after pass 1.
	remaining := make(map[rune]int, len(targetRunes))

	for i, r := range guessRunes {
		if r == targetRunes[i] {
			verdicts[i] = VerdictCorrect
		} else {
			remaining[targetRunes[i]]++
		}
	}

	for i, r := range guessRunes {
		if verdicts[i] == VerdictCorrect {
			continue
		}
		if remaining[r] > 0 {
			verdicts[i] = VerdictPresent
			remaining[r]--
		} else {
			verdicts[i] = VerdictAbsent
		}
	}
	return verdicts
}

// AllCorrect reports whether every verdict is correct.
func AllCorrect(vs []Verdict) bool {
	for _, v := range vs {
		if v != VerdictCorrect {
			return false
		}
	}
	return true
}
