package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "./data/skyrdle.db", cfg.Database.DSN)
	assert.Equal(t, "skyrdle_session", cfg.Auth.CookieName)
	assert.Equal(t, "2025-06-13", cfg.Puzzle.Epoch)
	assert.Equal(t, "America/New_York", cfg.Puzzle.Timezone)
	assert.Equal(t, 5, cfg.Puzzle.WordLength)
	assert.Equal(t, 6, cfg.Puzzle.MaxGuesses)
	assert.Equal(t, "farm.smol.games.skyrdle.player.score", cfg.Mirror.Collection)
	assert.Equal(t, time.Hour, cfg.Stats.Interval)
	assert.Equal(t, "http://localhost:4000", cfg.Server.PublicOrigin)
}

func TestLoadFileOverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
puzzle:
  max_guesses: 8
mirror:
  enabled: true
  identifier: skyrdle.bsky.social
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Puzzle.MaxGuesses)
	assert.True(t, cfg.Mirror.Enabled)
	assert.Equal(t, "skyrdle.bsky.social", cfg.Mirror.Identifier)
	// Untouched knobs fall back to defaults.
	assert.Equal(t, 5, cfg.Puzzle.WordLength)
	assert.Equal(t, "https://bsky.social", cfg.Mirror.Service)
	assert.Equal(t, "http://localhost:8080", cfg.Server.PublicOrigin)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SKYRDLE_SECRET", "hunter2")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: ${TEST_SKYRDLE_SECRET}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Auth.JWTSecret)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEpochTime(t *testing.T) {
	cfg := DefaultConfig()
	epoch, loc, err := cfg.EpochTime()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
	assert.Equal(t, 2025, epoch.Year())
	assert.Equal(t, time.June, epoch.Month())
	assert.Equal(t, 13, epoch.Day())
	assert.Zero(t, epoch.Hour())

	cfg.Puzzle.Timezone = "Not/AZone"
	_, _, err = cfg.EpochTime()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Puzzle.Epoch = "June 13th"
	_, _, err = cfg.EpochTime()
	assert.Error(t, err)
}
