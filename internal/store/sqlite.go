package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteDB implements the DB interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens/creates a SQLite database at path and runs migrations.
// Use ":memory:" for tests.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteDB{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error { return s.db.Close() }

// Ping verifies the connection is still usable. Used by health checks.
func (s *SQLiteDB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// migrate runs the idempotent schema migrations in one transaction.
func (s *SQLiteDB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS high_scores (
			difficulty TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS session_results (
			id TEXT PRIMARY KEY,
			difficulty TEXT NOT NULL,
			score INTEGER NOT NULL,
			delivered INTEGER NOT NULL,
			elapsed REAL NOT NULL,
			new_high_score INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_difficulty_created ON session_results(difficulty, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_results_created ON session_results(created_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// GetHighScore returns the best score for a tier, or 0 if none is recorded.
func (s *SQLiteDB) GetHighScore(ctx context.Context, difficulty string) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM high_scores WHERE difficulty = ?`, difficulty).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query high score: %w", err)
	}
	return score, nil
}

// SetHighScoreIfGreater records score for the tier only if it beats the
// stored one, and reports whether a new high score was written. The guarded
// upsert makes retries idempotent: re-submitting the same score is a no-op.
func (s *SQLiteDB) SetHighScoreIfGreater(ctx context.Context, difficulty string, score int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO high_scores(difficulty, score, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(difficulty) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at
		WHERE excluded.score > high_scores.score`,
		difficulty, score, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to upsert high score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SaveResult stores one finished session. Generates an ID when missing.
func (s *SQLiteDB) SaveResult(ctx context.Context, result *SessionResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	newHighInt := 0
	if result.NewHighScore {
		newHighInt = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_results(id, difficulty, score, delivered, elapsed, new_high_score, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(), result.Difficulty, result.Score, result.Delivered,
		result.Elapsed, newHighInt, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session result: %w", err)
	}
	return nil
}

// ListResults retrieves session history with pagination and optional tier filter.
func (s *SQLiteDB) ListResults(ctx context.Context, query ResultsQuery) (*ResultsList, error) {
	whereClause := ""
	args := []any{}
	if query.Difficulty != "" {
		whereClause = "WHERE difficulty = ?"
		args = append(args, query.Difficulty)
	}

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM session_results " + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT id, difficulty, score, delivered, elapsed, new_high_score, created_at
		FROM session_results ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var r SessionResult
		var idStr string
		var newHighInt int
		if err := rows.Scan(&idStr, &r.Difficulty, &r.Score, &r.Delivered, &r.Elapsed, &newHighInt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid result id %q: %w", idStr, err)
		}
		r.NewHighScore = newHighInt == 1
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return &ResultsList{
		Results:    results,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// ListHighScores returns every tier's best score, highest first.
func (s *SQLiteDB) ListHighScores(ctx context.Context) ([]HighScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, score, updated_at FROM high_scores ORDER BY score DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query high scores: %w", err)
	}
	defer rows.Close()

	var out []HighScore
	for rows.Next() {
		var hs HighScore
		if err := rows.Scan(&hs.Difficulty, &hs.Score, &hs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan high score: %w", err)
		}
		out = append(out, hs)
	}
	return out, rows.Err()
}

// RecordScore satisfies the engine's ScoreRecorder contract so a session can
// submit its final score on the terminal transition.
func (s *SQLiteDB) RecordScore(difficulty string, score int) (bool, error) {
	return s.SetHighScoreIfGreater(context.Background(), difficulty, score)
}
