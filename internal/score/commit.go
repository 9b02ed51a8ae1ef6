// internal/score/commit.go
//
// Score commitments. A commitment is the hex SHA-256 of the canonical
// pipe-delimited string "did|gameNumber|score". It names and dedupes the
// record mirrored into the player's own repository, and lets any third party
// recompute it from the three public inputs to check a claimed score. It is
// a commitment, not a MAC: there is no secret, and it proves only that the
// (id, game, score) triple is consistent with the stored digest.
//
// The byte layout here must never change. The mirroring path keys external
// records by this digest; any drift between producers creates permanent
// duplicates in players' portable histories.

package score

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Commit returns the commitment digest for a finished game. score is the
// guess count for a win, or the loss sentinel (-1), formatted as a plain
// decimal integer with no extra whitespace.
func Commit(did string, gameNumber, score int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", did, gameNumber, score)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest for the given inputs and compares it with a
// claimed digest.
func Verify(did string, gameNumber, score int, digest string) bool {
	return Commit(did, gameNumber, score) == digest
}
