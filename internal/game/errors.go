package game

import "errors"

// Configuration errors - fatal at setup, abort session creation.
var (
	ErrInvalidDifficulty = errors.New("invalid difficulty tier")
	ErrInvalidMultiplier = errors.New("score multiplier must be > 0")
)

// Protocol errors - caller misuse, session state unaffected.
var (
	ErrSessionNotRunning = errors.New("session is not running")
	ErrSessionEnded      = errors.New("session has ended")
	ErrInvalidDuration   = errors.New("tick duration must be > 0")
)

// Player-input errors - recoverable, surfaced to the UI for feedback.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrServerNotFound       = errors.New("server not found")
	ErrServerSaturated      = errors.New("server is saturated")
	ErrOrderAlreadyResolved = errors.New("order already assigned or delivered")
)
