package game

import (
	"errors"
	"testing"
)

func TestPoolAssignIncrementsLoad(t *testing.T) {
	p := NewServerPool(3, 3)
	order := &Order{ID: "pizza-1", SpawnedAt: 3}

	srv, err := p.Assign(order, "server-2")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if srv.ID != "server-2" || srv.Load != 1 {
		t.Errorf("expected server-2 at load 1, got %s at load %d", srv.ID, srv.Load)
	}
	if !order.Delivered || order.AssignedServerID != "server-2" {
		t.Errorf("expected order assigned and delivered atomically, got %+v", order)
	}

	// Only the target server moved.
	for _, id := range []string{"server-1", "server-3"} {
		other, _ := p.Server(id)
		if other.Load != 0 {
			t.Errorf("expected %s untouched at load 0, got %d", id, other.Load)
		}
	}
}

func TestPoolAssignUnknownServer(t *testing.T) {
	p := NewServerPool(2, 3)
	order := &Order{ID: "pizza-1"}

	_, err := p.Assign(order, "server-9")
	if !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("expected ErrServerNotFound, got %v", err)
	}
	if order.Resolved() {
		t.Error("failed assignment must not mutate the order")
	}
}

func TestPoolAssignSaturatedServerNeverMutates(t *testing.T) {
	p := NewServerPool(2, 1)
	if _, err := p.Assign(&Order{ID: "pizza-1"}, "server-1"); err != nil {
		t.Fatalf("setup assignment failed: %v", err)
	}

	order := &Order{ID: "pizza-2"}
	_, err := p.Assign(order, "server-1")
	if !errors.Is(err, ErrServerSaturated) {
		t.Fatalf("expected ErrServerSaturated, got %v", err)
	}

	srv, _ := p.Server("server-1")
	if srv.Load != 1 {
		t.Errorf("rejected assignment mutated load: got %d, want 1", srv.Load)
	}
	if order.Resolved() {
		t.Error("rejected assignment mutated the order")
	}
}

func TestPoolAssignResolvedOrder(t *testing.T) {
	p := NewServerPool(2, 3)
	order := &Order{ID: "pizza-1"}
	if _, err := p.Assign(order, "server-1"); err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}

	_, err := p.Assign(order, "server-2")
	if !errors.Is(err, ErrOrderAlreadyResolved) {
		t.Fatalf("expected ErrOrderAlreadyResolved, got %v", err)
	}
	srv, _ := p.Server("server-2")
	if srv.Load != 0 {
		t.Errorf("re-assignment mutated server-2 load: got %d", srv.Load)
	}
}

func TestPoolIsSaturated(t *testing.T) {
	p := NewServerPool(2, 1)
	if p.IsSaturated() {
		t.Error("fresh pool must not be saturated")
	}

	p.Assign(&Order{ID: "pizza-1"}, "server-1")
	if p.IsSaturated() {
		t.Error("pool with one open server must not be saturated")
	}

	p.Assign(&Order{ID: "pizza-2"}, "server-2")
	if !p.IsSaturated() {
		t.Error("pool with every server at capacity must be saturated")
	}
}

func TestPoolSnapshotIsACopy(t *testing.T) {
	p := NewServerPool(2, 3)
	snap := p.Snapshot()
	snap[0].Load = 99

	srv, _ := p.Server("server-1")
	if srv.Load != 0 {
		t.Error("mutating a snapshot leaked into the pool")
	}
}
