package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slicework/pizza-lb-go/internal/game"
	"github.com/slicework/pizza-lb-go/internal/store"
)

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

const persistTimeout = 5 * time.Second

// managedSession wraps one engine session with the concurrency and lifecycle
// state the HTTP layer needs. The engine itself is single-threaded; mu
// serializes every Tick/Assign/Start against it.
type managedSession struct {
	id         uuid.UUID
	mu         sync.Mutex
	session    *game.Session
	hub        *watchHub
	lastActive time.Time
}

// SessionManager owns all live sessions, keyed by ID. Finished sessions stay
// readable until the idle TTL expires so clients can fetch the final state
// or restart.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*managedSession

	db     store.DB
	logger *log.Logger
	ttl    time.Duration
	done   chan struct{}
}

// NewSessionManager creates a manager that persists finished sessions to db.
// db may be nil; sessions then run without high-score tracking.
func NewSessionManager(db store.DB, logger *log.Logger, ttl time.Duration) *SessionManager {
	m := &SessionManager{
		sessions: make(map[uuid.UUID]*managedSession),
		db:       db,
		logger:   logger,
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the janitor and disconnects every watcher.
func (m *SessionManager) Close() {
	close(m.done)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ms := range m.sessions {
		ms.hub.closeAll()
		delete(m.sessions, id)
	}
}

// Create starts a new session on the given difficulty tier.
func (m *SessionManager) Create(difficulty string) (uuid.UUID, game.Snapshot, error) {
	var opts []game.SessionOption
	if m.db != nil {
		opts = append(opts, game.WithScoreRecorder(m.db))
	}
	session, err := game.NewSession(difficulty, opts...)
	if err != nil {
		return uuid.Nil, game.Snapshot{}, err
	}
	session.Start()

	ms := &managedSession{
		id:         uuid.New(),
		session:    session,
		hub:        newWatchHub(),
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[ms.id] = ms
	m.mu.Unlock()

	m.logger.Printf("session_created session_id=%s difficulty=%s", ms.id, difficulty)
	return ms.id, session.Snapshot(), nil
}

// Snapshot returns the current state of a session.
func (m *SessionManager) Snapshot(id uuid.UUID) (game.Snapshot, error) {
	ms, ok := m.get(id)
	if !ok {
		return game.Snapshot{}, ErrSessionNotFound
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.session.Snapshot(), nil
}

// Tick advances a session's clock and broadcasts the resulting events.
func (m *SessionManager) Tick(id uuid.UUID, dt float64) (game.TickResult, game.Snapshot, error) {
	ms, ok := m.get(id)
	if !ok {
		return game.TickResult{}, game.Snapshot{}, ErrSessionNotFound
	}

	ms.mu.Lock()
	res, err := ms.session.Tick(dt)
	snap := ms.session.Snapshot()
	ms.lastActive = time.Now()
	ms.mu.Unlock()
	if err != nil {
		return game.TickResult{}, snap, err
	}

	ms.hub.broadcast(res.Events)
	if res.GameOver {
		m.finishSession(ms, snap, res.FinalScore, res.NewHighScore)
	}
	return res, snap, nil
}

// Assign routes an order within a session and broadcasts the resulting events.
func (m *SessionManager) Assign(id uuid.UUID, orderID, serverID string) (game.AssignResult, game.Snapshot, error) {
	ms, ok := m.get(id)
	if !ok {
		return game.AssignResult{}, game.Snapshot{}, ErrSessionNotFound
	}

	ms.mu.Lock()
	res, err := ms.session.Assign(orderID, serverID)
	snap := ms.session.Snapshot()
	ms.lastActive = time.Now()
	ms.mu.Unlock()
	if err != nil {
		return game.AssignResult{}, snap, err
	}

	ms.hub.broadcast(res.Events)
	if res.GameOver {
		m.finishSession(ms, snap, res.FinalScore, res.NewHighScore)
	}
	return res, snap, nil
}

// Restart begins a fresh play-through on the same difficulty.
func (m *SessionManager) Restart(id uuid.UUID) (game.Snapshot, error) {
	ms, ok := m.get(id)
	if !ok {
		return game.Snapshot{}, ErrSessionNotFound
	}

	ms.mu.Lock()
	ms.session.Start()
	snap := ms.session.Snapshot()
	ms.lastActive = time.Now()
	ms.mu.Unlock()

	m.logger.Printf("session_restarted session_id=%s difficulty=%s", ms.id, snap.Difficulty.Tier)
	return snap, nil
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) get(id uuid.UUID) (*managedSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[id]
	return ms, ok
}

// finishSession persists the result of a finished play-through.
func (m *SessionManager) finishSession(ms *managedSession, snap game.Snapshot, score int, newHigh bool) {
	m.logger.Printf(
		"session_ended session_id=%s difficulty=%s score=%d delivered=%d new_high_score=%t",
		ms.id, snap.Difficulty.Tier, score, snap.DeliveredCount, newHigh,
	)
	if err := ms.session.RecordErr(); err != nil {
		m.logger.Printf("high_score_submit_failed session_id=%s error=%q", ms.id, err)
	}

	if m.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	result := &store.SessionResult{
		ID:           ms.id,
		Difficulty:   snap.Difficulty.Tier,
		Score:        score,
		Delivered:    snap.DeliveredCount,
		Elapsed:      snap.Elapsed,
		NewHighScore: newHigh,
	}
	if err := m.db.SaveResult(ctx, result); err != nil {
		m.logger.Printf("result_persist_failed session_id=%s error=%q", ms.id, err)
	}
}

// janitor drops sessions idle longer than the TTL.
func (m *SessionManager) janitor() {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ms := range m.sessions {
		ms.mu.Lock()
		idle := ms.lastActive.Before(cutoff)
		ms.mu.Unlock()
		if idle {
			ms.hub.closeAll()
			delete(m.sessions, id)
			m.logger.Printf("session_evicted session_id=%s", id)
		}
	}
}
