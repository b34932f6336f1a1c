package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slicework/pizza-lb-go/internal/game"
	"github.com/slicework/pizza-lb-go/internal/store"
)

// handleCreateSession starts a new session and returns its initial state.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidParams,
			"Invalid JSON in request body", nil)
		return
	}
	if req.Difficulty == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"difficulty is required", map[string]interface{}{"field": "difficulty"})
		return
	}

	id, snap, err := s.sessions.Create(req.Difficulty)
	if err != nil {
		s.handleGameError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID:     id.String(),
		Session:       snap,
		EngineVersion: EngineVersion,
	})
}

// handleGetSession returns the current state of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := s.sessions.Snapshot(id)
	if err != nil {
		s.handleSessionError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID:     id.String(),
		Session:       snap,
		EngineVersion: EngineVersion,
	})
}

// handleTick advances a session's clock by dt_seconds.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidParams,
			"Invalid JSON in request body", nil)
		return
	}

	res, snap, err := s.sessions.Tick(id, req.DtSeconds)
	if err != nil {
		s.handleSessionError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, TickResponse{
		SessionID:     id.String(),
		Result:        res,
		Session:       snap,
		EngineVersion: EngineVersion,
	})
}

// handleAssign routes a pending order to a server.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidParams,
			"Invalid JSON in request body", nil)
		return
	}
	if req.OrderID == "" || req.ServerID == "" {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"order_id and server_id are required", nil)
		return
	}

	res, snap, err := s.sessions.Assign(id, req.OrderID, req.ServerID)
	if err != nil {
		s.handleSessionError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, AssignResponse{
		SessionID:     id.String(),
		Result:        res,
		Session:       snap,
		EngineVersion: EngineVersion,
	})
}

// handleRestart begins a fresh play-through on the same difficulty.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := s.sessions.Restart(id)
	if err != nil {
		s.handleSessionError(w, r, id, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID:     id.String(),
		Session:       snap,
		EngineVersion: EngineVersion,
	})
}

// handleGetHighScore returns the best recorded score for one tier.
func (s *Server) handleGetHighScore(w http.ResponseWriter, r *http.Request) {
	tier := chi.URLParam(r, "difficulty")
	if _, err := game.GetDifficulty(tier); err != nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeInvalidDifficulty,
			"Unknown difficulty tier", map[string]interface{}{"difficulty": tier})
		return
	}

	score, err := s.db.GetHighScore(r.Context(), tier)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal,
			"Failed to load high score", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, HighScoreResponse{
		Difficulty:    tier,
		Score:         score,
		EngineVersion: EngineVersion,
	})
}

// handleListHighScores returns every tier's best score, highest first.
func (s *Server) handleListHighScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.db.ListHighScores(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal,
			"Failed to load high scores", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, HighScoresResponse{
		HighScores:    scores,
		EngineVersion: EngineVersion,
	})
}

// handleListResults returns finished-session history with pagination.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	query := store.ResultsQuery{
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				"page must be a positive integer", map[string]interface{}{"page": v})
			return
		}
		query.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 200 {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				"per_page must be between 1 and 200", map[string]interface{}{"per_page": v})
			return
		}
		query.PerPage = perPage
	}

	list, err := s.db.ListResults(r.Context(), query)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal,
			"Failed to load results", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, ResultsResponse{
		ResultsList:   *list,
		EngineVersion: EngineVersion,
	})
}

// handleListDifficulties returns the registered tiers, easiest first.
func (s *Server) handleListDifficulties(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, DifficultiesResponse{
		Difficulties:  game.ListDifficulties(),
		EngineVersion: EngineVersion,
	})
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

// sessionID parses the sessionID URL parameter, writing the error response
// itself on failure.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidParams,
			"Invalid session ID", map[string]interface{}{"session_id": raw})
		return uuid.Nil, false
	}
	return id, true
}

// handleSessionError maps manager and engine errors to HTTP responses.
func (s *Server) handleSessionError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeSessionNotFound,
			"Session not found", map[string]interface{}{"session_id": id.String()})
		return
	}
	s.handleGameError(w, r, err)
}
