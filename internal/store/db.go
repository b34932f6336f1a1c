package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DB is the persistence interface consumed by the API layer.
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetHighScore(ctx context.Context, difficulty string) (int, error)
	SetHighScoreIfGreater(ctx context.Context, difficulty string, score int) (bool, error)
	ListHighScores(ctx context.Context) ([]HighScore, error)
	SaveResult(ctx context.Context, result *SessionResult) error
	ListResults(ctx context.Context, query ResultsQuery) (*ResultsList, error)

	// RecordScore adapts SetHighScoreIfGreater to the engine's ScoreRecorder
	// contract for sessions that submit scores without a request context.
	RecordScore(difficulty string, score int) (bool, error)
}

// HighScore is the best recorded score for one difficulty tier.
type HighScore struct {
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionResult is one finished play-through.
type SessionResult struct {
	ID           uuid.UUID `json:"id"`
	Difficulty   string    `json:"difficulty"`
	Score        int       `json:"score"`
	Delivered    int       `json:"delivered"`
	Elapsed      float64   `json:"elapsed"`
	NewHighScore bool      `json:"new_high_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultsQuery filters and paginates session history.
type ResultsQuery struct {
	Difficulty string `json:"difficulty,omitempty"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
}

// ResultsList is one page of session history.
type ResultsList struct {
	Results    []SessionResult `json:"results"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}
