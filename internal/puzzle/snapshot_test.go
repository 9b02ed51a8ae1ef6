package puzzle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	words []string
	err   error
}

func (f *fakeSource) PuzzleWords(context.Context) ([]string, error) {
	return f.words, f.err
}

func TestNewSnapshotRefusesEmptyList(t *testing.T) {
	_, err := NewSnapshot(context.Background(), &fakeSource{})
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestNewSnapshotPropagatesSourceError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewSnapshot(context.Background(), &fakeSource{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	src := &fakeSource{words: []string{"CRANE", "STARE"}}
	s, err := NewSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"CRANE", "STARE"}, s.Words())

	src.words = nil
	assert.ErrorIs(t, s.Reload(context.Background()), ErrEmptyList)
	assert.Equal(t, []string{"CRANE", "STARE"}, s.Words(), "previous snapshot survives a bad reload")

	src.words = []string{"CRANE", "STARE", "AUDIO"}
	require.NoError(t, s.Reload(context.Background()))
	assert.Len(t, s.Words(), 3)
}
