package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/slicework/pizza-lb-go/internal/game"
)

// pizzalb-sim runs a headless session with a built-in assignment strategy and
// prints the per-tick trace. Useful for eyeballing difficulty balance.
func main() {
	var (
		difficulty = flag.String("difficulty", "easy", "difficulty tier")
		dt         = flag.Float64("dt", 1.0, "tick size in seconds")
		strategy   = flag.String("strategy", "least-loaded", "assignment strategy: least-loaded, round-robin, none")
		verbose    = flag.Bool("v", false, "print every event")
	)
	flag.Parse()

	session, err := game.NewSession(*difficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	session.Start()

	cfg := session.Config()
	fmt.Printf("difficulty=%s servers=%d capacity=%d spawn_interval=%.1fs duration=%.0fs multiplier=%.1fx strategy=%s\n",
		cfg.Tier, cfg.ServerCount, cfg.ServerCapacity,
		cfg.SpawnIntervalSeconds, cfg.SessionDurationSeconds, cfg.ScoreMultiplier, *strategy)

	next := 0 // round-robin cursor
	for session.State() == game.StateRunning {
		res, err := session.Tick(*dt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tick error: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			printEvents(res.Events)
		}
		if res.GameOver {
			break
		}

		for _, order := range pendingOrders(session) {
			serverID, ok := pickServer(session, *strategy, &next)
			if !ok {
				break
			}
			ares, err := session.Assign(order.ID, serverID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "assign error: %v\n", err)
				os.Exit(1)
			}
			if *verbose {
				printEvents(ares.Events)
			}
			if ares.GameOver {
				break
			}
		}
	}

	snap := session.Snapshot()
	score, _ := session.FinalScore()
	fmt.Printf("game_over elapsed=%.1fs delivered=%d score=%d\n", snap.Elapsed, snap.DeliveredCount, score)
	for _, srv := range snap.Servers {
		fmt.Printf("  %s load=%d/%d\n", srv.ID, srv.Load, srv.Capacity)
	}
}

func pendingOrders(s *game.Session) []game.Order {
	return s.Snapshot().PendingOrders
}

// pickServer chooses the next target server, or reports that nothing can
// take an order.
func pickServer(s *game.Session, strategy string, next *int) (string, bool) {
	servers := s.Snapshot().Servers
	switch strategy {
	case "none":
		return "", false
	case "round-robin":
		for i := 0; i < len(servers); i++ {
			srv := servers[(*next+i)%len(servers)]
			if !srv.Saturated() {
				*next = (*next + i + 1) % len(servers)
				return srv.ID, true
			}
		}
		return "", false
	default: // least-loaded
		best := -1
		for i, srv := range servers {
			if srv.Saturated() {
				continue
			}
			if best == -1 || srv.Load < servers[best].Load {
				best = i
			}
		}
		if best == -1 {
			return "", false
		}
		return servers[best].ID, true
	}
}

func printEvents(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EventOrderSpawned:
			fmt.Printf("  spawn %s\n", ev.OrderID)
		case game.EventScoreChanged:
			fmt.Printf("  deliver %s -> %s delivered=%d projected=%d\n", ev.OrderID, ev.ServerID, ev.Delivered, ev.Score)
		case game.EventServerSaturated:
			fmt.Printf("  saturated %s\n", ev.ServerID)
		case game.EventSessionEnded:
			fmt.Printf("  ended score=%d delivered=%d\n", ev.Score, ev.Delivered)
		case game.EventNewHighScore:
			fmt.Printf("  new high score %d\n", ev.Score)
		}
	}
}
