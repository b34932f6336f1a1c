package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slicework/pizza-lb-go/internal/game"
	"github.com/slicework/pizza-lb-go/internal/store"
)

// DefaultSessionTTL is how long an idle session survives before eviction.
const DefaultSessionTTL = 30 * time.Minute

// Server handles HTTP requests
type Server struct {
	db        store.DB
	sessions  *SessionManager
	logger    *log.Logger
	startTime time.Time
}

// NewServer creates a new API server
func NewServer(db store.DB, sessionTTL time.Duration) *Server {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	server := &Server{
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
	server.sessions = NewSessionManager(db, logger, sessionTTL)

	logger.Printf(
		"server_startup difficulties=%d session_ttl=%v database_enabled=%t engine_version=%s",
		len(game.ListDifficulties()), sessionTTL, db != nil, EngineVersion,
	)

	return server
}

// Close releases the session manager and its watchers.
func (s *Server) Close() {
	s.sessions.Close()
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.RecoveryHandler)
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/difficulties", s.handleListDifficulties)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/tick", s.handleTick)
				r.Post("/assign", s.handleAssign)
				r.Post("/restart", s.handleRestart)
				r.Get("/watch", s.handleWatchSession)
			})
		})

		r.Get("/highscores", s.handleListHighScores)
		r.Get("/highscores/{difficulty}", s.handleGetHighScore)
		r.Get("/results", s.handleListResults)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, try to write a simple error response
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
