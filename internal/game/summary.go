package game

import (
	"fmt"
	"strings"
)

// Glyphs used in the shareable grid, one per verdict.
const (
	glyphCorrect = "🟩"
	glyphPresent = "🟨"
	glyphAbsent  = "⬛"
)

// Summary renders the shareable plain-text grid for a finished attempt:
//
//	Skyrdle 3 2/6
//
//	🟩🟨⬛⬛🟨
//	🟩🟩🟩🟩🟩
//
// A lost game shows "X" in place of the guess count. Returns the empty
// string while the attempt is still Playing; there is nothing to share yet.
func Summary(gameNumber int, guesses []Guess, state State, maxGuesses int) string {
	if !state.Terminal() {
		return ""
	}

	scoreLabel := "X"
	if state == StateWon {
		scoreLabel = fmt.Sprintf("%d", len(guesses))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Skyrdle %d %s/%d\n", gameNumber, scoreLabel, maxGuesses)
	for _, g := range guesses {
		b.WriteString("\n")
		for _, v := range g.Evaluation {
			switch v {
			case VerdictCorrect:
				b.WriteString(glyphCorrect)
			case VerdictPresent:
				b.WriteString(glyphPresent)
			default:
				b.WriteString(glyphAbsent)
			}
		}
	}
	return b.String()
}
