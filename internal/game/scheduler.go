package game

import "fmt"

// Order is one discrete pizza to be routed to a server before the session ends.
type Order struct {
	ID               string  `json:"id"`
	SpawnedAt        float64 `json:"spawned_at"`
	AssignedServerID string  `json:"assigned_server_id,omitempty"`
	Delivered        bool    `json:"delivered"`
}

// Resolved reports whether the order has already been assigned or delivered.
// A resolved order can never be assigned again.
func (o *Order) Resolved() bool {
	return o.Delivered || o.AssignedServerID != ""
}

// SpawnScheduler decides when new orders appear. It is pull-driven: the
// session calls Advance with its elapsed time and receives every order that
// became due since the previous call. The catch-up loop means a coarse tick
// never silently drops spawns.
type SpawnScheduler struct {
	interval    float64
	nextSpawnAt float64
	spawned     int
}

// NewSpawnScheduler creates a scheduler with the first spawn due at interval.
func NewSpawnScheduler(interval float64) *SpawnScheduler {
	s := &SpawnScheduler{interval: interval}
	s.Reset()
	return s
}

// Reset rewinds the scheduler to the start of a fresh session.
func (s *SpawnScheduler) Reset() {
	s.nextSpawnAt = s.interval
	s.spawned = 0
}

// Advance returns every order due at or before elapsed, in spawn order.
// Orders are never regenerated: a due time is consumed exactly once.
func (s *SpawnScheduler) Advance(elapsed float64) []*Order {
	var due []*Order
	for elapsed >= s.nextSpawnAt {
		s.spawned++
		due = append(due, &Order{
			ID:        fmt.Sprintf("pizza-%d", s.spawned),
			SpawnedAt: s.nextSpawnAt,
		})
		s.nextSpawnAt += s.interval
	}
	return due
}

// Spawned returns how many orders the scheduler has produced so far.
func (s *SpawnScheduler) Spawned() int {
	return s.spawned
}
