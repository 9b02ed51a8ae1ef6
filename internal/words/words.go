// internal/words/words.go
//
// Accepted-guess vocabulary for the game engine.
//
// Responsibilities:
//   - Load the accepted word list from a configured file or fall back to the
//     embedded default list.
//   - Maintain a set for O(1) membership tests.
//
// Constraints:
//   - Words must be alphabetic and exactly the configured length.
//   - Lookups are case-insensitive; the set is normalized to uppercase.
//
// The vocabulary is an explicit object handed to the engine, not ambient
// package state.

package words

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed default_words.txt
var embeddedWords string

// Vocabulary is a fixed membership set of accepted guess words.
type Vocabulary struct {
	length   int
	accepted map[string]struct{}
}

// Load builds a Vocabulary of words with the given letter count. When path
// is empty the embedded default list is used. An empty resulting set is an
// error; the service cannot validate guesses without one.
func Load(path string, length int) (*Vocabulary, error) {
	var lines []string
	if path != "" {
		fileLines, err := readWordFile(path)
		if err != nil {
			return nil, err
		}
		lines = fileLines
	} else {
		lines = strings.Split(embeddedWords, "\n")
	}

	accepted := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		w := strings.ToUpper(strings.TrimSpace(line))
		if utf8.RuneCountInString(w) == length && isAlpha(w) {
			accepted[w] = struct{}{}
		}
	}
	if len(accepted) == 0 {
		return nil, fmt.Errorf("words: no valid %d-letter words loaded", length)
	}
	return &Vocabulary{length: length, accepted: accepted}, nil
}

// IsAccepted reports whether w is a valid guess.
func (v *Vocabulary) IsAccepted(w string) bool {
	_, ok := v.accepted[strings.ToUpper(strings.TrimSpace(w))]
	return ok
}

// Add marks a word as accepted. Curated puzzle answers are always guessable
// even when the validation list omits them.
func (v *Vocabulary) Add(w string) {
	w = strings.ToUpper(strings.TrimSpace(w))
	if utf8.RuneCountInString(w) == v.length && isAlpha(w) {
		v.accepted[w] = struct{}{}
	}
}

// Len returns the number of accepted words.
func (v *Vocabulary) Len() int { return len(v.accepted) }

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// isAlpha reports whether s is all ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
