package api

import (
	"github.com/slicework/pizza-lb-go/internal/game"
	"github.com/slicework/pizza-lb-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidDifficulty = "invalid_difficulty"
	ErrTypeInvalidParams     = "invalid_params"
	ErrTypeValidation        = "validation_error"

	// Session lifecycle errors
	ErrTypeSessionNotFound = "session_not_found"
	ErrTypeSessionState    = "session_state_error"

	// Gameplay errors (player input, non-terminal)
	ErrTypeOrderNotFound   = "order_not_found"
	ErrTypeServerNotFound  = "server_not_found"
	ErrTypeServerSaturated = "server_saturated"
	ErrTypeOrderResolved   = "order_already_resolved"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategorySession    ErrorCategory = "session"
	CategoryGameplay   ErrorCategory = "gameplay"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidDifficulty, ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeSessionNotFound, ErrTypeSessionState:
		return CategorySession
	case ErrTypeOrderNotFound, ErrTypeServerNotFound, ErrTypeServerSaturated, ErrTypeOrderResolved:
		return CategoryGameplay
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CreateSessionRequest starts a new session on a difficulty tier.
type CreateSessionRequest struct {
	Difficulty string `json:"difficulty"`
}

// TickRequest advances session time by DtSeconds.
type TickRequest struct {
	DtSeconds float64 `json:"dt_seconds"`
}

// AssignRequest routes a pending order to a server.
type AssignRequest struct {
	OrderID  string `json:"order_id"`
	ServerID string `json:"server_id"`
}

// SessionResponse is the canonical session view returned by most endpoints.
type SessionResponse struct {
	SessionID     string        `json:"session_id"`
	Session       game.Snapshot `json:"session"`
	EngineVersion string        `json:"engine_version"`
}

// TickResponse reports one tick plus the resulting session view.
type TickResponse struct {
	SessionID     string          `json:"session_id"`
	Result        game.TickResult `json:"result"`
	Session       game.Snapshot   `json:"session"`
	EngineVersion string          `json:"engine_version"`
}

// AssignResponse reports one assignment plus the resulting session view.
type AssignResponse struct {
	SessionID     string            `json:"session_id"`
	Result        game.AssignResult `json:"result"`
	Session       game.Snapshot     `json:"session"`
	EngineVersion string            `json:"engine_version"`
}

// HighScoreResponse is the best score for one tier.
type HighScoreResponse struct {
	Difficulty    string `json:"difficulty"`
	Score         int    `json:"score"`
	EngineVersion string `json:"engine_version"`
}

// HighScoresResponse lists every tier's best score.
type HighScoresResponse struct {
	HighScores    []store.HighScore `json:"high_scores"`
	EngineVersion string            `json:"engine_version"`
}

// ResultsResponse is one page of finished-session history.
type ResultsResponse struct {
	store.ResultsList
	EngineVersion string `json:"engine_version"`
}

// DifficultiesResponse lists the registered difficulty tiers.
type DifficultiesResponse struct {
	Difficulties  []game.DifficultyConfig `json:"difficulties"`
	EngineVersion string                  `json:"engine_version"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status        string `json:"status"`
	EngineVersion string `json:"engine_version"`
	Timestamp     string `json:"timestamp"`
}
