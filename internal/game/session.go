package game

import (
	"fmt"
	"math"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateGameOver State = "game_over"
)

// EventType identifies an observable session event.
type EventType string

const (
	EventOrderSpawned    EventType = "order_spawned"
	EventScoreChanged    EventType = "score_changed"
	EventServerSaturated EventType = "server_saturated"
	EventSessionEnded    EventType = "session_ended"
	EventNewHighScore    EventType = "new_high_score"
)

// Event is one observable state change, returned from Tick and Assign for
// the driver/UI to react to. The engine never invokes callbacks.
type Event struct {
	Type      EventType `json:"type"`
	OrderID   string    `json:"order_id,omitempty"`
	ServerID  string    `json:"server_id,omitempty"`
	Delivered int       `json:"delivered,omitempty"`
	Score     int       `json:"score,omitempty"`
}

// ScoreRecorder is the consumed high-score collaborator. Implementations
// must be idempotent under retries: submitting the same score twice never
// double-counts.
type ScoreRecorder interface {
	RecordScore(tier string, score int) (newHigh bool, err error)
}

// TickResult reports what one Tick call produced.
type TickResult struct {
	Spawned      []Order `json:"spawned"`
	Events       []Event `json:"events"`
	GameOver     bool    `json:"game_over"`
	FinalScore   int     `json:"final_score,omitempty"`
	NewHighScore bool    `json:"new_high_score,omitempty"`
}

// AssignResult reports a successful assignment.
type AssignResult struct {
	Order        Order   `json:"order"`
	Server       Server  `json:"server"`
	Events       []Event `json:"events"`
	GameOver     bool    `json:"game_over"`
	FinalScore   int     `json:"final_score,omitempty"`
	NewHighScore bool    `json:"new_high_score,omitempty"`
}

// Snapshot is a read-only view of the session for the UI layer.
type Snapshot struct {
	Difficulty     DifficultyConfig `json:"difficulty"`
	State          State            `json:"state"`
	Elapsed        float64          `json:"elapsed"`
	TimeRemaining  float64          `json:"time_remaining"`
	Servers        []Server         `json:"servers"`
	PendingOrders  []Order          `json:"pending_orders"`
	DeliveredCount int              `json:"delivered_count"`
	FinalScore     *int             `json:"final_score"`
	NewHighScore   bool             `json:"new_high_score,omitempty"`
}

// Session is one play-through of the load balancer game. It owns its servers
// and orders exclusively and is single-threaded: the driver must serialize
// Tick and Assign calls. All mutation freezes once the session reaches
// StateGameOver; the only legal operation after that is Start.
type Session struct {
	cfg       DifficultyConfig
	state     State
	elapsed   float64
	scheduler *SpawnScheduler
	pool      *ServerPool

	pending      map[string]*Order
	pendingOrder []string // spawn order, for deterministic snapshots

	deliveredCount int
	finalScore     int
	scored         bool
	newHighScore   bool

	recorder  ScoreRecorder
	recordErr error
}

// SessionOption configures optional session collaborators.
type SessionOption func(*Session)

// WithScoreRecorder wires the high-score store. The session submits its
// final score on the terminal transition.
func WithScoreRecorder(r ScoreRecorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// NewSession creates an idle session for a registered difficulty tier.
func NewSession(tier string, opts ...SessionOption) (*Session, error) {
	cfg, err := GetDifficulty(tier)
	if err != nil {
		return nil, err
	}
	return NewSessionWithConfig(cfg, opts...)
}

// NewSessionWithConfig creates an idle session from an explicit config.
func NewSessionWithConfig(cfg DifficultyConfig, opts ...SessionOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{cfg: cfg, state: StateIdle}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start transitions to StateRunning with every counter reset. Calling Start
// on a finished (or running) session begins a fresh play-through with the
// same difficulty; all prior servers and orders are discarded.
func (s *Session) Start() {
	s.state = StateRunning
	s.elapsed = 0
	s.scheduler = NewSpawnScheduler(s.cfg.SpawnIntervalSeconds)
	s.pool = NewServerPool(s.cfg.ServerCount, s.cfg.ServerCapacity)
	s.pending = make(map[string]*Order)
	s.pendingOrder = s.pendingOrder[:0]
	s.deliveredCount = 0
	s.finalScore = 0
	s.scored = false
	s.newHighScore = false
	s.recordErr = nil
}

// Tick advances session time by dt seconds, spawns any due orders, and
// evaluates game-over. Call order within one tick: time first, then spawns,
// then the terminal check.
func (s *Session) Tick(dt float64) (TickResult, error) {
	var res TickResult

	switch s.state {
	case StateIdle:
		return res, ErrSessionNotRunning
	case StateGameOver:
		return res, ErrSessionEnded
	}
	if dt <= 0 {
		return res, fmt.Errorf("%w: got %v", ErrInvalidDuration, dt)
	}

	s.elapsed += dt

	for _, order := range s.scheduler.Advance(s.elapsed) {
		s.pending[order.ID] = order
		s.pendingOrder = append(s.pendingOrder, order.ID)
		res.Spawned = append(res.Spawned, *order)
		res.Events = append(res.Events, Event{Type: EventOrderSpawned, OrderID: order.ID})
	}

	if s.elapsed >= s.cfg.SessionDurationSeconds || s.pool.IsSaturated() {
		s.finish(&res.Events)
		res.GameOver = true
		res.FinalScore = s.finalScore
		res.NewHighScore = s.newHighScore
	}

	return res, nil
}

// Assign routes a pending order to a server. Player-input failures
// (unknown order, unknown server, saturated server, resolved order) leave
// the session untouched and are returned for UI feedback; they are not
// terminal. A successful assignment that saturates the last open server
// ends the session immediately.
func (s *Session) Assign(orderID, serverID string) (AssignResult, error) {
	var res AssignResult

	switch s.state {
	case StateIdle:
		return res, ErrSessionNotRunning
	case StateGameOver:
		return res, ErrSessionEnded
	}

	order, exists := s.pending[orderID]
	if !exists {
		return res, fmt.Errorf("%w: %q", ErrOrderNotFound, orderID)
	}

	srv, err := s.pool.Assign(order, serverID)
	if err != nil {
		return res, err
	}

	s.removePending(orderID)
	s.deliveredCount++

	res.Order = *order
	res.Server = srv
	res.Events = append(res.Events, Event{
		Type:      EventScoreChanged,
		OrderID:   orderID,
		ServerID:  serverID,
		Delivered: s.deliveredCount,
		Score:     s.projectedScore(),
	})
	if srv.Saturated() {
		res.Events = append(res.Events, Event{Type: EventServerSaturated, ServerID: serverID})
	}

	if s.pool.IsSaturated() {
		s.finish(&res.Events)
		res.GameOver = true
		res.FinalScore = s.finalScore
		res.NewHighScore = s.newHighScore
	}

	return res, nil
}

// Snapshot returns a copy of all observable session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Difficulty:     s.cfg,
		State:          s.state,
		Elapsed:        s.elapsed,
		TimeRemaining:  s.timeRemaining(),
		DeliveredCount: s.deliveredCount,
		NewHighScore:   s.newHighScore,
	}
	if s.pool != nil {
		snap.Servers = s.pool.Snapshot()
	}
	snap.PendingOrders = make([]Order, 0, len(s.pending))
	for _, id := range s.pendingOrder {
		if order, ok := s.pending[id]; ok {
			snap.PendingOrders = append(snap.PendingOrders, *order)
		}
	}
	if s.scored {
		score := s.finalScore
		snap.FinalScore = &score
	}
	return snap
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Config returns the difficulty the session was created with.
func (s *Session) Config() DifficultyConfig { return s.cfg }

// FinalScore returns the score and whether the session has finished.
func (s *Session) FinalScore() (int, bool) { return s.finalScore, s.scored }

// RecordErr reports a high-score submission failure, if any. The failure
// never blocks the terminal transition; the driver decides how to surface it.
func (s *Session) RecordErr() error { return s.recordErr }

// finish performs the terminal transition: compute the score once, submit it
// to the recorder, drop expired pending orders, and freeze the session.
func (s *Session) finish(events *[]Event) {
	s.state = StateGameOver

	score, err := Score(s.deliveredCount, s.timeRemaining(), s.cfg.ScoreMultiplier)
	if err != nil {
		// Unreachable for a validated config; keep the zero score if not.
		score = 0
	}
	s.finalScore = score
	s.scored = true

	// Orders still pending simply expire: no penalty, no error.
	s.pending = make(map[string]*Order)
	s.pendingOrder = s.pendingOrder[:0]

	if s.recorder != nil {
		s.newHighScore, s.recordErr = s.recorder.RecordScore(s.cfg.Tier, s.finalScore)
	}

	*events = append(*events, Event{Type: EventSessionEnded, Score: s.finalScore, Delivered: s.deliveredCount})
	if s.newHighScore {
		*events = append(*events, Event{Type: EventNewHighScore, Score: s.finalScore})
	}
}

// projectedScore is the score the session would finish with right now.
func (s *Session) projectedScore() int {
	score, err := Score(s.deliveredCount, s.timeRemaining(), s.cfg.ScoreMultiplier)
	if err != nil {
		return 0
	}
	return score
}

func (s *Session) timeRemaining() float64 {
	return math.Max(0, s.cfg.SessionDurationSeconds-s.elapsed)
}

func (s *Session) removePending(orderID string) {
	delete(s.pending, orderID)
	for i, id := range s.pendingOrder {
		if id == orderID {
			s.pendingOrder = append(s.pendingOrder[:i], s.pendingOrder[i+1:]...)
			break
		}
	}
}
