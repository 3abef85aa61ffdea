// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Position identifies which role an event was recorded for.
type Position string

// Valid positions.
const (
	PositionField  Position = "field"
	PositionKeeper Position = "keeper"
)

// EventType identifies the kind of training event. The valid set depends
// on the Position it is paired with; see Vocabulary.
type EventType string

// Outfield event types.
const (
	TypeShot   EventType = "shot"
	TypeGoal   EventType = "goal"
	TypeAssist EventType = "assist"
	TypePass   EventType = "pass"
)

// Keeper event types.
const (
	TypeShotOnGoalAgainst EventType = "shot_on_goal_against"
	TypeSave              EventType = "save"
	TypeConcede           EventType = "concede"
)

// MaxNotesLength bounds the free-text notes field.
const MaxNotesLength = 200

// vocabulary maps each position to its closed set of event types.
var vocabulary = map[Position][]EventType{
	PositionField:  {TypeShot, TypeGoal, TypeAssist, TypePass},
	PositionKeeper: {TypeShotOnGoalAgainst, TypeSave, TypeConcede},
}

// Vocabulary returns the event types valid for position, or nil when the
// position itself is unknown.
func Vocabulary(p Position) []EventType {
	types, ok := vocabulary[p]
	if !ok {
		return nil
	}
	out := make([]EventType, len(types))
	copy(out, types)
	return out
}

// Event represents a single recorded practice event.
type Event struct {
	ID       string    // assigned by the store on insert
	TS       time.Time // when the event happened; store defaults it to now
	Position Position
	Type     EventType
	OnTarget bool   // meaningful only for shot events
	Scored   bool   // meaningful only for shot events; a scored shot counts as a goal
	Notes    string // optional annotation, at most MaxNotesLength runes
}

// Validate checks the position/event-type pairing against the vocabulary.
// An event type outside the vocabulary of its position is rejected, never
// silently coerced.
func (e Event) Validate() error {
	types, ok := vocabulary[e.Position]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, e.Position)
	}
	for _, t := range types {
		if e.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a %s event", ErrInvalidEventType, e.Type, e.Position)
}

// TrainingGoal is a user-defined target value for a named metric.
// The metric key is open-ended at this level; unknown metrics are legal
// to store and simply yield no progress value.
type TrainingGoal struct {
	ID        string
	Metric    string
	Target    float64
	CreatedAt time.Time
}
