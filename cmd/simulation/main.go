package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"venue-guide-be/internal/bootstrap"
	"venue-guide-be/internal/config"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Headless run of one navigation session against the configured venue.
// Optionally congests the assigned gate and raises SOS part way through.
func main() {
	gate := flag.String("gate", "gate-2", "assigned gate id")
	tick := flag.Duration("tick", 0, "override tick interval (e.g. 10ms to fast-forward)")
	spikeAfter := flag.Duration("spike-after", 2*time.Second, "congest the assigned gate after this delay (0 disables)")
	sosAfter := flag.Duration("sos-after", 0, "trigger SOS after this delay (0 disables)")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	showPositions := flag.Bool("positions", false, "print every position update")
	flag.Parse()

	cfg := config.Load()
	params := cfg.Nav.Params()
	if *tick > 0 {
		params.TickInterval = *tick
	}

	graph, err := bootstrap.LoadVenue(cfg.Venue.File, logger.NewNopLogger())
	if err != nil {
		log.Fatalf("Failed to load venue: %v", err)
	}

	color.Cyan("Venue: %s (%d waypoints)\n", graph.Name(), len(graph.All()))

	done := make(chan navigation.ArrivalEvent, 1)
	listener := func(evt navigation.Event) {
		printEvent(evt, *showPositions)
		if a, ok := evt.(navigation.ArrivalEvent); ok {
			select {
			case done <- a:
			default:
			}
		}
	}

	session := navigation.NewSession(graph, navigation.SessionConfig{
		ID:           uuid.NewString(),
		EntityID:     "simulated-pilgrim",
		AssignedGate: *gate,
		Params:       params,
		Listener:     listener,
	})
	runner := navigation.NewRunner(session, navigation.RealClock(), params.TickInterval, nil)
	defer runner.Terminate()

	if err := runner.Start(); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	if *spikeAfter > 0 {
		time.AfterFunc(*spikeAfter, func() {
			st, err := runner.Status()
			if err != nil {
				return
			}
			color.Magenta("! congestion spike at %s\n", st.AssignedGate)
			res := graph.ApplyCongestion(venue.CongestionSnapshot{
				Levels:    map[string]venue.Congestion{st.AssignedGate: venue.CongestionHigh},
				Timestamp: time.Now(),
			})
			_ = runner.EvaluateCongestion(res.Changed > 0)
		})
	}
	if *sosAfter > 0 {
		time.AfterFunc(*sosAfter, func() {
			color.Magenta("! SOS pressed\n")
			_ = runner.TriggerSOS()
		})
	}

	select {
	case a := <-done:
		st, _ := runner.Status()
		color.Green("Finished at %s (mode %s, rerouted %t)\n", a.WaypointID, a.Mode, st.Rerouted)
	case <-time.After(*timeout):
		color.Red("Timed out after %s\n", *timeout)
		runner.Terminate()
		os.Exit(1)
	}
}

func printEvent(evt navigation.Event, positions bool) {
	ts := evt.Timestamp().Format("15:04:05.000")
	switch e := evt.(type) {
	case navigation.RouteChanged:
		c := color.New(color.FgBlue, color.Bold)
		if e.Mode == navigation.ModeEmergency {
			c = color.New(color.FgRed, color.Bold)
		}
		c.Printf("%s ROUTE %-11s %v -> %v", ts, e.Reason, e.Route.Origin, e.Route.Waypoints)
		if e.Fallback {
			c.Printf(" (no alternate gate)")
		}
		fmt.Println()
	case navigation.PositionUpdate:
		if positions {
			fmt.Printf("%s pos (%.1f, %.1f)\n", ts, e.X, e.Y)
		}
	case navigation.ProximityInsight:
		color.Yellow("%s INSIGHT %s: %s\n", ts, e.Label, e.Text)
	case navigation.InsightCleared:
		color.HiBlack("%s insight %s cleared (%s)\n", ts, e.WaypointID, e.Reason)
	case navigation.GuidanceNotice:
		color.Cyan("%s [%s] %s: %s\n", ts, e.Level, e.Title, e.Message)
	case navigation.ArrivalEvent:
		color.Green("%s ARRIVED %s at (%.1f, %.1f)\n", ts, e.WaypointID, e.Position.X, e.Position.Y)
	case navigation.SessionError:
		color.Red("%s ERROR %s: %s\n", ts, e.Code, e.Message)
	}
}
