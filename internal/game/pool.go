package game

import "fmt"

// Server is a capacity-limited sink for orders. Invariant: 0 <= Load <= Capacity.
type Server struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	Load     int    `json:"load"`
}

// Saturated reports whether the server can accept no more orders.
func (s *Server) Saturated() bool {
	return s.Load >= s.Capacity
}

// ServerPool enforces capacity and applies assignments. Load never decreases
// in this model; there is no unload operation.
type ServerPool struct {
	servers []*Server
	byID    map[string]*Server
}

// NewServerPool creates count servers with the given capacity, all at load 0.
// Server IDs are "server-1" through "server-<count>".
func NewServerPool(count, capacity int) *ServerPool {
	p := &ServerPool{
		servers: make([]*Server, 0, count),
		byID:    make(map[string]*Server, count),
	}
	for i := 1; i <= count; i++ {
		srv := &Server{ID: fmt.Sprintf("server-%d", i), Capacity: capacity}
		p.servers = append(p.servers, srv)
		p.byID[srv.ID] = srv
	}
	return p
}

// Assign routes an order to the named server. Delivery is instantaneous:
// on success the order is marked assigned and delivered in the same step and
// exactly one server's load goes up by one. On any failure neither the order
// nor any server is mutated.
func (p *ServerPool) Assign(order *Order, serverID string) (Server, error) {
	srv, exists := p.byID[serverID]
	if !exists {
		return Server{}, fmt.Errorf("%w: %q", ErrServerNotFound, serverID)
	}
	if srv.Saturated() {
		return Server{}, fmt.Errorf("%w: %q", ErrServerSaturated, serverID)
	}
	if order.Resolved() {
		return Server{}, fmt.Errorf("%w: %q", ErrOrderAlreadyResolved, order.ID)
	}

	srv.Load++
	order.AssignedServerID = serverID
	order.Delivered = true
	return *srv, nil
}

// IsSaturated reports whether every server is at capacity. This is the
// authoritative game-over-by-overload signal.
func (p *ServerPool) IsSaturated() bool {
	for _, srv := range p.servers {
		if !srv.Saturated() {
			return false
		}
	}
	return true
}

// Server returns a snapshot of one server by ID.
func (p *ServerPool) Server(id string) (Server, bool) {
	srv, exists := p.byID[id]
	if !exists {
		return Server{}, false
	}
	return *srv, true
}

// Snapshot returns copies of all servers in creation order.
func (p *ServerPool) Snapshot() []Server {
	out := make([]Server, len(p.servers))
	for i, srv := range p.servers {
		out[i] = *srv
	}
	return out
}
