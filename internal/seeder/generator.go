package seeder

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/pkg/logger"
)

// Constants for random number generation.
const (
	eventIDDivisor    = 10000
	eventShapeDivisor = 10
	secondsPerDay     = 86400
)

// Constants for event shape cases. Shots dominate a realistic training
// session, so they get the widest slice of the distribution.
const (
	caseShotWide      = 0
	caseShotOnTarget  = 1
	caseShotScored    = 2
	caseGoal          = 3
	caseAssist        = 4
	casePass          = 5
	casePassAgain     = 6
	caseKeeperShot    = 7
	caseKeeperSave    = 8
	caseKeeperConcede = 9
)

// generateEvents creates the specified number of events with unique event IDs.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, error) {
	logger.Get().Info(ctx, "generating training events", logger.Int("numEvents", config.NumEvents))

	events := make([]Event, config.NumEvents)

	// Pre-allocate idempotency keys to ensure uniqueness
	eventIDs := make([]string, config.NumEvents)
	for i := 0; i < config.NumEvents; i++ {
		eventIDs[i] = uuid.New().String()
	}

	// Generate events concurrently
	type eventResult struct {
		index int
		event Event
		err   error
	}

	resultChan := make(chan eventResult, config.NumEvents)

	// Use worker pool for event generation
	workerCount := minInt(config.Workers, config.NumEvents)
	eventsPerWorker := config.NumEvents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * eventsPerWorker
		end := start + eventsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvents // Last worker gets remaining events
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- eventResult{index: i, err: ctx.Err()}
					return
				default:
					event := generateSingleEvent(i, eventIDs[i], config.Days)
					resultChan <- eventResult{index: i, event: event, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate event %d: %w", result.index, result.err)
			}
			events[result.index] = result.event
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generateSingleEvent creates a single event with the given index and idempotency key.
func generateSingleEvent(index int, eventID string, days int) Event {
	event := generateEventShape()

	// Spread timestamps uniformly across the past N training days so the
	// report's per-day series has something to chart.
	if days < 1 {
		days = 1
	}
	offset, _ := rand.Int(rand.Reader, big.NewInt(int64(days)*secondsPerDay))
	ts := time.Now().UTC().Add(-time.Duration(offset.Int64()) * time.Second)
	event.TS = ts.Format(time.RFC3339)

	// The server also accepts any opaque key; a per-run suffix keeps
	// repeated runs from colliding in the dedupe window.
	randNum, _ := rand.Int(rand.Reader, big.NewInt(eventIDDivisor))
	event.EventID = eventID + "_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	return event
}

// generateEventShape picks a position, event type and flag combination
// with a distribution that resembles a real session.
func generateEventShape() Event {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(eventShapeDivisor))
	switch randNum.Int64() {
	case caseShotWide:
		return Event{Position: string(model.PositionField), Type: string(model.TypeShot)}
	case caseShotOnTarget:
		return Event{Position: string(model.PositionField), Type: string(model.TypeShot), OnTarget: true}
	case caseShotScored:
		// A scored shot counts as a goal as well.
		return Event{Position: string(model.PositionField), Type: string(model.TypeShot), OnTarget: true, Scored: true}
	case caseGoal:
		return Event{Position: string(model.PositionField), Type: string(model.TypeGoal)}
	case caseAssist:
		return Event{Position: string(model.PositionField), Type: string(model.TypeAssist)}
	case casePass, casePassAgain:
		return Event{Position: string(model.PositionField), Type: string(model.TypePass)}
	case caseKeeperShot:
		return Event{Position: string(model.PositionKeeper), Type: string(model.TypeShotOnGoalAgainst)}
	case caseKeeperSave:
		return Event{Position: string(model.PositionKeeper), Type: string(model.TypeSave)}
	case caseKeeperConcede:
		return Event{Position: string(model.PositionKeeper), Type: string(model.TypeConcede)}
	default:
		return Event{Position: string(model.PositionField), Type: string(model.TypePass)}
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
