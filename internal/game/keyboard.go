package game

// KeyStatuses folds every guess's verdicts into the best known status per
// letter, with priority correct > present > absent. A letter that has never
// been guessed has no entry. Clients use this to color the on-screen
// keyboard; the fold is derived, read-only state.
func KeyStatuses(guesses []Guess) map[string]Verdict {
	statuses := make(map[string]Verdict)
	for _, g := range guesses {
		for i, letter := range g.Letters {
			if i >= len(g.Evaluation) {
				break
			}
			next := g.Evaluation[i]
			current, seen := statuses[letter]
			switch {
			case next == VerdictCorrect:
				statuses[letter] = VerdictCorrect
			case next == VerdictPresent && current != VerdictCorrect:
				statuses[letter] = VerdictPresent
			case next == VerdictAbsent && !seen:
				statuses[letter] = VerdictAbsent
			}
		}
	}
	return statuses
}
