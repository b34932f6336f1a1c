package game

import (
	"fmt"
	"testing"
)

func TestSchedulerSpawnsOnSchedule(t *testing.T) {
	s := NewSpawnScheduler(3)

	if got := s.Advance(2.9); len(got) != 0 {
		t.Errorf("expected no orders before first interval, got %d", len(got))
	}
	if got := s.Advance(3.0); len(got) != 1 {
		t.Errorf("expected exactly one order at the interval boundary, got %d", len(got))
	}
	if got := s.Advance(5.9); len(got) != 0 {
		t.Errorf("expected no orders between intervals, got %d", len(got))
	}
	if got := s.Advance(6.1); len(got) != 1 {
		t.Errorf("expected one order after second interval, got %d", len(got))
	}
}

func TestSchedulerCatchUp(t *testing.T) {
	// A coarse tick must not drop spawns: jumping straight to 10s with a 1s
	// interval owes ten orders in one call.
	s := NewSpawnScheduler(1)

	orders := s.Advance(10.0)
	if len(orders) != 10 {
		t.Fatalf("expected 10 catch-up orders, got %d", len(orders))
	}
	for i, order := range orders {
		wantID := fmt.Sprintf("pizza-%d", i+1)
		if order.ID != wantID {
			t.Errorf("order %d: expected ID %s, got %s", i, wantID, order.ID)
		}
		wantAt := float64(i + 1)
		if order.SpawnedAt != wantAt {
			t.Errorf("order %s: expected SpawnedAt %v, got %v", order.ID, wantAt, order.SpawnedAt)
		}
	}
}

func TestSchedulerNeverRegeneratesPastOrders(t *testing.T) {
	s := NewSpawnScheduler(2)

	first := s.Advance(8.0)
	if len(first) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(first))
	}
	if again := s.Advance(8.0); len(again) != 0 {
		t.Errorf("advancing to the same elapsed time must not regenerate orders, got %d", len(again))
	}
}

func TestSchedulerNeverOverproduces(t *testing.T) {
	// Spawn count can never exceed floor(elapsed / interval).
	s := NewSpawnScheduler(1)

	elapsed := 0.0
	for i := 0; i < 11; i++ {
		elapsed += 1.0
		s.Advance(elapsed)
		max := int(elapsed / 1.0)
		if s.Spawned() > max {
			t.Fatalf("after %v seconds: %d orders spawned, max allowed %d", elapsed, s.Spawned(), max)
		}
	}
	if s.Spawned() < 10 {
		t.Errorf("after eleven 1.0s ticks at a 1s interval, expected at least 10 orders, got %d", s.Spawned())
	}
}

func TestSchedulerReset(t *testing.T) {
	s := NewSpawnScheduler(1)
	s.Advance(5)
	s.Reset()

	if s.Spawned() != 0 {
		t.Errorf("expected spawn counter reset to 0, got %d", s.Spawned())
	}
	orders := s.Advance(1)
	if len(orders) != 1 || orders[0].ID != "pizza-1" {
		t.Errorf("expected IDs to restart at pizza-1 after reset, got %+v", orders)
	}
}
