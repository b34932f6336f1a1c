package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/slicework/pizza-lb-go/internal/game"
)

// mapGameError translates an engine error into an HTTP status and error type.
func mapGameError(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidDifficulty):
		return http.StatusBadRequest, ErrTypeInvalidDifficulty
	case errors.Is(err, game.ErrInvalidDuration):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, game.ErrSessionNotRunning), errors.Is(err, game.ErrSessionEnded):
		return http.StatusConflict, ErrTypeSessionState
	case errors.Is(err, game.ErrOrderNotFound):
		return http.StatusNotFound, ErrTypeOrderNotFound
	case errors.Is(err, game.ErrServerNotFound):
		return http.StatusNotFound, ErrTypeServerNotFound
	case errors.Is(err, game.ErrServerSaturated):
		return http.StatusConflict, ErrTypeServerSaturated
	case errors.Is(err, game.ErrOrderAlreadyResolved):
		return http.StatusConflict, ErrTypeOrderResolved
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// handleGameError writes a structured response for an engine error.
func (s *Server) handleGameError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := mapGameError(err)
	s.writeError(w, r, status, errType, err.Error(), nil)
}

// writeError writes a structured error response and logs it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string, context map[string]interface{}) {
	requestID := middleware.GetReqID(r.Context())
	engineErr := EngineError{
		Type:      errType,
		Message:   message,
		Context:   context,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	category := GetErrorCategory(errType)
	level := "ERROR"
	if category == CategoryValidation || category == CategoryGameplay {
		level = "WARN"
	}
	s.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s path=%s message=%q",
		level, errType, category, status, requestID, r.URL.Path, message,
	)

	w.Header().Set("X-Error-Type", errType)
	w.Header().Set("X-Error-Category", string(category))
	s.writeJSON(w, status, engineErr)
}

// RecoveryHandler provides panic recovery with structured error logging
func (s *Server) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				requestID := middleware.GetReqID(r.Context())
				s.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)
				s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal,
					"Internal server error", nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
