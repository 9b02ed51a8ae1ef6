package puzzle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func easternIndexer(t *testing.T) (*Indexer, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	return NewIndexer(DefaultEpoch(loc), loc), loc
}

func TestNumberForEpochDayIsOne(t *testing.T) {
	idx, loc := easternIndexer(t)

	assert.Equal(t, 1, idx.NumberFor(time.Date(2025, 6, 13, 0, 0, 0, 0, loc)))
	assert.Equal(t, 1, idx.NumberFor(time.Date(2025, 6, 13, 23, 59, 59, 0, loc)))
	assert.Equal(t, 2, idx.NumberFor(time.Date(2025, 6, 14, 0, 0, 1, 0, loc)))
}

func TestNumberForUsesCanonicalZone(t *testing.T) {
	idx, loc := easternIndexer(t)

	// 03:00 UTC on June 15 is still June 14 in New York.
	inUTC := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, idx.NumberFor(inUTC))
	assert.Equal(t, idx.NumberFor(inUTC), idx.NumberFor(inUTC.In(loc)))
}

func TestNumberForStableAcrossDSTFallBack(t *testing.T) {
	idx, loc := easternIndexer(t)

	// DST ends 2025-11-02 in New York; that 25-hour day still counts as one.
	before := idx.NumberFor(time.Date(2025, 11, 1, 12, 0, 0, 0, loc))
	during := idx.NumberFor(time.Date(2025, 11, 2, 12, 0, 0, 0, loc))
	after := idx.NumberFor(time.Date(2025, 11, 3, 12, 0, 0, 0, loc))
	assert.Equal(t, before+1, during)
	assert.Equal(t, during+1, after)
}

func TestWordForCyclesList(t *testing.T) {
	idx, _ := easternIndexer(t)
	words := []string{"CRANE", "STARE", "AUDIO", "PLUMB", "FJORD"}

	w1, err := idx.WordFor(1, words)
	require.NoError(t, err)
	assert.Equal(t, "CRANE", w1)

	w5, err := idx.WordFor(5, words)
	require.NoError(t, err)
	assert.Equal(t, "FJORD", w5)

	w6, err := idx.WordFor(6, words)
	require.NoError(t, err)
	assert.Equal(t, w1, w6, "list cycles after exhaustion")
}

func TestWordForEmptyList(t *testing.T) {
	idx, _ := easternIndexer(t)
	_, err := idx.WordFor(1, nil)
	assert.ErrorIs(t, err, ErrEmptyList)
}
