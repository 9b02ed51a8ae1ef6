// internal/config/config.go
//
// Application configuration: YAML file with ${ENV} expansion, plus defaults
// for every knob so the server runs with no config file at all.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Puzzle   PuzzleConfig   `yaml:"puzzle"`
	Words    WordsConfig    `yaml:"words"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Stats    StatsConfig    `yaml:"stats"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	ClientOrigin string        `yaml:"client_origin"`
	PublicOrigin string        `yaml:"public_origin"`
}

// DatabaseConfig holds the SQLite DSN.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the optional Redis connection for leaderboards. An empty
// Addr disables Redis; leaderboard reads fall back to SQLite.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds session token settings. The DID inside a session token
// was verified by the identity provider before the token was issued.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	ExpiryDays int    `yaml:"expiry_days"`
	CookieName string `yaml:"cookie_name"`
}

// AdminConfig gates the word-curation endpoints. PasswordHash is a bcrypt
// hash; an empty value disables the admin surface entirely.
type AdminConfig struct {
	PasswordHash string `yaml:"password_hash"`
}

// PuzzleConfig drives the daily indexer and the state machine dimensions.
type PuzzleConfig struct {
	Epoch          string        `yaml:"epoch"`    // YYYY-MM-DD in Timezone
	Timezone       string        `yaml:"timezone"` // canonical zone for day boundaries
	WordLength     int           `yaml:"word_length"`
	MaxGuesses     int           `yaml:"max_guesses"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// WordsConfig locates the accepted-guess vocabulary. Empty file uses the
// embedded default list.
type WordsConfig struct {
	File string `yaml:"file"`
}

// MirrorConfig drives the AT Protocol mirroring worker.
type MirrorConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Service     string        `yaml:"service"`
	Identifier  string        `yaml:"identifier"`
	AppPassword string        `yaml:"app_password"`
	Collection  string        `yaml:"collection"`
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batch_size"`
	RecordDelay time.Duration `yaml:"record_delay"`
}

// StatsConfig drives the rollup job.
type StatsConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML file, expanding ${ENV} references.
// A missing path yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.ClientOrigin == "" {
		c.Server.ClientOrigin = "http://localhost:5173"
	}
	if c.Server.PublicOrigin == "" {
		c.Server.PublicOrigin = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "./data/skyrdle.db"
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if c.Auth.ExpiryDays == 0 {
		c.Auth.ExpiryDays = 14
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "skyrdle_session"
	}

	if c.Puzzle.Epoch == "" {
		c.Puzzle.Epoch = "2025-06-13"
	}
	if c.Puzzle.Timezone == "" {
		c.Puzzle.Timezone = "America/New_York"
	}
	if c.Puzzle.WordLength == 0 {
		c.Puzzle.WordLength = 5
	}
	if c.Puzzle.MaxGuesses == 0 {
		c.Puzzle.MaxGuesses = 6
	}
	if c.Puzzle.ReloadInterval == 0 {
		c.Puzzle.ReloadInterval = 15 * time.Minute
	}

	if c.Mirror.Service == "" {
		c.Mirror.Service = "https://bsky.social"
	}
	if c.Mirror.Collection == "" {
		c.Mirror.Collection = "farm.smol.games.skyrdle.player.score"
	}
	if c.Mirror.Interval == 0 {
		c.Mirror.Interval = time.Hour
	}
	if c.Mirror.BatchSize == 0 {
		c.Mirror.BatchSize = 100
	}
	if c.Mirror.RecordDelay == 0 {
		c.Mirror.RecordDelay = 500 * time.Millisecond
	}

	if c.Stats.Interval == 0 {
		c.Stats.Interval = time.Hour
	}
}

// EpochTime parses the configured epoch date at midnight in the canonical
// timezone.
func (c *Config) EpochTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(c.Puzzle.Timezone)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading timezone %q: %w", c.Puzzle.Timezone, err)
	}
	day, err := time.ParseInLocation("2006-01-02", c.Puzzle.Epoch, loc)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parsing epoch %q: %w", c.Puzzle.Epoch, err)
	}
	return day, loc, nil
}
