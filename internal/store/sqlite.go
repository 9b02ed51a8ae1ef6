// internal/store/sqlite.go
//
// SQLite-backed Store. Schema lives in ./sql migrations (see root db.go).
// Guess histories are stored as JSON in a TEXT column; every other field is
// a plain column so the mirroring and rollup queries stay in SQL.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/smolfarm/skyrdle/internal/game"
)

// SQLite implements Store on a *sql.DB opened with the go-sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open, migrated database handle.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) FindAttempt(ctx context.Context, did string, gameNumber int) (*game.Attempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT did, game_number, target_word, guesses, state, completed_at, score_commitment, mirrored
		FROM attempts WHERE did=? AND game_number=?`, did, gameNumber)
	return scanAttempt(row)
}

func (s *SQLite) SaveAttempt(ctx context.Context, a *game.Attempt) error {
	guesses, err := json.Marshal(a.Guesses)
	if err != nil {
		return fmt.Errorf("marshal guesses: %w", err)
	}
	var completed any
	if a.CompletedAt != nil {
		completed = a.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (did, game_number, target_word, guesses, state, completed_at, score_commitment, mirrored)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(did, game_number) DO UPDATE SET
			guesses=excluded.guesses,
			state=excluded.state,
			completed_at=excluded.completed_at,
			score_commitment=excluded.score_commitment`,
		a.DID, a.GameNumber, a.TargetWord, string(guesses), string(a.State),
		completed, nullIfEmpty(a.ScoreCommitment), boolToInt(a.Mirrored))
	return err
}

func (s *SQLite) FindCustomPuzzle(ctx context.Context, id string) (*game.CustomPuzzle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, creator_did, target_word, created_at FROM custom_puzzles WHERE id=?`, id)
	var p game.CustomPuzzle
	var created string
	if err := row.Scan(&p.ID, &p.CreatorDID, &p.TargetWord, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

func (s *SQLite) CreateCustomPuzzle(ctx context.Context, p *game.CustomPuzzle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_puzzles (id, creator_did, target_word, created_at) VALUES (?,?,?,?)`,
		p.ID, p.CreatorDID, p.TargetWord, p.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLite) FindCustomAttempt(ctx context.Context, customID, did string) (*game.CustomAttempt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT custom_id, did, guesses, state, completed_at
		FROM custom_attempts WHERE custom_id=? AND did=?`, customID, did)
	var a game.CustomAttempt
	var guesses, state string
	var completed sql.NullString
	if err := row.Scan(&a.CustomID, &a.DID, &guesses, &state, &completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(guesses), &a.Guesses); err != nil {
		return nil, fmt.Errorf("unmarshal guesses: %w", err)
	}
	st, err := game.ParseState(state)
	if err != nil {
		return nil, err
	}
	a.State = st
	if completed.Valid {
		t, _ := time.Parse(time.RFC3339, completed.String)
		a.CompletedAt = &t
	}
	return &a, nil
}

func (s *SQLite) SaveCustomAttempt(ctx context.Context, a *game.CustomAttempt) error {
	guesses, err := json.Marshal(a.Guesses)
	if err != nil {
		return fmt.Errorf("marshal guesses: %w", err)
	}
	var completed any
	if a.CompletedAt != nil {
		completed = a.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_attempts (custom_id, did, guesses, state, completed_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(custom_id, did) DO UPDATE SET
			guesses=excluded.guesses,
			state=excluded.state,
			completed_at=excluded.completed_at`,
		a.CustomID, a.DID, string(guesses), string(a.State), completed)
	return err
}

func (s *SQLite) PuzzleWords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM puzzle_words ORDER BY game_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendPuzzleWord(ctx context.Context, word string) (int, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO puzzle_words (word) VALUES (?)`,
		strings.ToUpper(strings.TrimSpace(word)))
	if err != nil {
		return 0, err
	}
	n, err := res.LastInsertId()
	return int(n), err
}

func (s *SQLite) UnmirroredAttempts(ctx context.Context, limit int) ([]*game.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT did, game_number, target_word, guesses, state, completed_at, score_commitment, mirrored
		FROM attempts
		WHERE state IN ('Won','Lost') AND mirrored=0
		ORDER BY completed_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Attempt
	for rows.Next() {
		a, err := scanAttemptRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) MarkMirrored(ctx context.Context, did string, gameNumber int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET mirrored=1 WHERE did=? AND game_number=?`, did, gameNumber)
	return err
}

func (s *SQLite) DistinctPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT did FROM attempts ORDER BY did`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var did string
		if err := rows.Scan(&did); err != nil {
			return nil, err
		}
		out = append(out, did)
	}
	return out, rows.Err()
}

func (s *SQLite) AttemptsByPlayer(ctx context.Context, did string) ([]*game.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT did, game_number, target_word, guesses, state, completed_at, score_commitment, mirrored
		FROM attempts WHERE did=? ORDER BY game_number ASC`, did)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*game.Attempt
	for rows.Next() {
		a, err := scanAttemptRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertPlayerStats(ctx context.Context, ps PlayerStats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (did, handle, games_won, games_lost, avg_score, current_streak, max_streak, updated_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(did) DO UPDATE SET
			handle=excluded.handle,
			games_won=excluded.games_won,
			games_lost=excluded.games_lost,
			avg_score=excluded.avg_score,
			current_streak=excluded.current_streak,
			max_streak=excluded.max_streak,
			updated_at=excluded.updated_at`,
		ps.DID, ps.Handle, ps.GamesWon, ps.GamesLost, ps.AvgScore,
		ps.CurrentStreak, ps.MaxStreak, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLite) FindPlayerStats(ctx context.Context, did string) (*PlayerStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT did, handle, games_won, games_lost, avg_score, current_streak, max_streak
		FROM players WHERE did=?`, did)
	var ps PlayerStats
	if err := row.Scan(&ps.DID, &ps.Handle, &ps.GamesWon, &ps.GamesLost,
		&ps.AvgScore, &ps.CurrentStreak, &ps.MaxStreak); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ps, nil
}

func (s *SQLite) TopStreaks(ctx context.Context, limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT did, handle, games_won, games_lost, avg_score, current_streak, max_streak
		FROM players ORDER BY current_streak DESC, did ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerStats
	for rows.Next() {
		var ps PlayerStats
		if err := rows.Scan(&ps.DID, &ps.Handle, &ps.GamesWon, &ps.GamesLost,
			&ps.AvgScore, &ps.CurrentStreak, &ps.MaxStreak); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *SQLite) AggregateWordStats(ctx context.Context) ([]WordStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_number,
		       SUM(CASE WHEN state='Won' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN state='Lost' THEN 1 ELSE 0 END),
		       COALESCE(AVG(CASE WHEN state='Won' THEN json_array_length(guesses) END), 0)
		FROM attempts
		GROUP BY game_number
		ORDER BY game_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WordStats
	for rows.Next() {
		var ws WordStats
		if err := rows.Scan(&ws.GameNumber, &ws.GamesWon, &ws.GamesLost, &ws.AvgScore); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertWordStats(ctx context.Context, ws WordStats) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE puzzle_words SET games_won=?, games_lost=?, avg_score=? WHERE game_number=?`,
		ws.GamesWon, ws.GamesLost, ws.AvgScore, ws.GameNumber)
	return err
}

func (s *SQLite) FindWordStats(ctx context.Context, gameNumber int) (*WordStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT game_number, games_won, games_lost, avg_score FROM puzzle_words WHERE game_number=?`,
		gameNumber)
	var ws WordStats
	if err := row.Scan(&ws.GameNumber, &ws.GamesWon, &ws.GamesLost, &ws.AvgScore); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row *sql.Row) (*game.Attempt, error) {
	a, err := scanAttemptFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func scanAttemptRows(rows *sql.Rows) (*game.Attempt, error) {
	return scanAttemptFrom(rows)
}

func scanAttemptFrom(sc scanner) (*game.Attempt, error) {
	var a game.Attempt
	var guesses, state string
	var completed, commitment sql.NullString
	var mirrored int
	if err := sc.Scan(&a.DID, &a.GameNumber, &a.TargetWord, &guesses, &state,
		&completed, &commitment, &mirrored); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(guesses), &a.Guesses); err != nil {
		return nil, fmt.Errorf("unmarshal guesses: %w", err)
	}
	st, err := game.ParseState(state)
	if err != nil {
		return nil, err
	}
	a.State = st
	if completed.Valid {
		t, _ := time.Parse(time.RFC3339, completed.String)
		a.CompletedAt = &t
	}
	a.ScoreCommitment = commitment.String
	a.Mirrored = mirrored != 0
	return &a, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
