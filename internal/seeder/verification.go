package seeder

import (
	"context"
	"fmt"
	"log"

	"github.com/okian/calcio/internal/domain/model"
)

// expectedSummary computes the counters the service should report after
// the generated events have been stored, ignoring submissions that failed.
// A scored outfield shot counts toward both shots and goals.
func expectedSummary(events []Event) Summary {
	var expected Summary
	for _, e := range events {
		if e.Position == string(model.PositionField) {
			switch e.Type {
			case string(model.TypeShot):
				expected.TotalShots++
				if e.Scored {
					expected.TotalGoals++
				}
			case string(model.TypeGoal):
				expected.TotalGoals++
			case string(model.TypeAssist):
				expected.TotalAssists++
			}
			continue
		}
		if e.Type == string(model.TypeSave) {
			expected.KeeperSaves++
		}
	}
	return expected
}

// verifySummary compares the service's counters against what the run
// submitted. Counters can only exceed the expectation when the store
// already held events, so shortfalls are the real failure signal.
func verifySummary(ctx context.Context, events []Event, summary *Summary, stats *Stats) error {
	log.Println("verifying summary counters...")

	if summary == nil {
		return fmt.Errorf("no summary to verify")
	}

	expected := expectedSummary(events)

	if stats.EventsFailed > 0 {
		log.Printf("warning: %d submissions failed; expected counters are upper bounds", stats.EventsFailed)
	}

	checks := []struct {
		name     string
		got, exp int
	}{
		{"total_shots", summary.TotalShots, expected.TotalShots},
		{"total_goals", summary.TotalGoals, expected.TotalGoals},
		{"total_assists", summary.TotalAssists, expected.TotalAssists},
		{"keeper_saves", summary.KeeperSaves, expected.KeeperSaves},
	}

	ok := true
	for _, c := range checks {
		if c.got < c.exp-stats.EventsFailed {
			log.Printf("mismatch: %s reported %d, expected at least %d", c.name, c.got, c.exp-stats.EventsFailed)
			ok = false
			continue
		}
		log.Printf("%s: reported %d (submitted %d this run)", c.name, c.got, c.exp)
	}

	if !ok {
		return fmt.Errorf("summary counters fell short of submitted events")
	}

	log.Println("summary verification completed")
	return nil
}
