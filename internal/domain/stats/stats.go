// Package stats computes derived summaries over recorded training events.
//
// Everything in this package is a pure function of its inputs: no I/O, no
// stored state, no locking. Undefined ratios (division by zero) and unknown
// goal metrics degrade to nil values instead of errors so that a stats view
// stays renderable even with no data.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/okian/calcio/internal/domain/model"
)

// Metric names the derived statistic a training goal tracks.
type Metric string

// Known metric kinds. Anything else evaluates to an unsupported result.
const (
	MetricGoalsPerWeek     Metric = "goals_per_week"
	MetricSavePercentage   Metric = "save_percentage"
	MetricShotsPerTraining Metric = "shots_per_training"
)

const percentMultiplier = 100

// Outfield aggregates events recorded for a field player.
type Outfield struct {
	Shots     int      `json:"total_shots"`
	OnTarget  int      `json:"total_on_target"`
	Goals     int      `json:"total_goals"`
	Assists   int      `json:"total_assists"`
	Passes    int      `json:"total_passes"`
	GoalPct   *float64 `json:"goal_percentage"`
	TargetPct *float64 `json:"on_target_percentage"`
}

// Keeper aggregates events recorded for a goalkeeper.
type Keeper struct {
	ShotsOnAgainst int      `json:"shots_on_against"`
	Saves          int      `json:"saves"`
	GoalsAllowed   int      `json:"goals_allowed"`
	SavePct        *float64 `json:"save_percentage"`
}

// Series holds per-calendar-date counts of field shots and goals as three
// parallel slices sorted by ascending date. Dates are the union of days that
// carry at least one qualifying event of either kind.
type Series struct {
	Dates []string `json:"labels"`
	Goals []int    `json:"goals"`
	Shots []int    `json:"shots"`
}

// GoalProgress reports the current measured value for one training goal.
// Progress carries metric-specific units and is nil both for ratios with an
// empty denominator and for unknown metrics; Supported distinguishes the two.
type GoalProgress struct {
	Metric    string   `json:"metric"`
	Target    float64  `json:"target"`
	Progress  *float64 `json:"progress"`
	Supported bool     `json:"supported"`
}

// Report bundles every derived value a stats view needs.
type Report struct {
	Outfield Outfield       `json:"outfield"`
	Keeper   Keeper         `json:"keeper"`
	Series   Series         `json:"series"`
	Goals    []GoalProgress `json:"goals_progress"`
}

// Summary is the machine-readable subset exposed for programmatic consumers.
type Summary struct {
	TotalShots   int `json:"total_shots"`
	TotalGoals   int `json:"total_goals"`
	TotalAssists int `json:"total_assists"`
	KeeperSaves  int `json:"keeper_saves"`
}

// isGoal reports whether the event counts as an outfield goal. Scored shots
// double-count: they contribute to both the shot and the goal tallies.
func isGoal(e model.Event) bool {
	if e.Position != model.PositionField {
		return false
	}
	return e.Type == model.TypeGoal || (e.Type == model.TypeShot && e.Scored)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// pct returns part/whole as a percentage rounded to two decimals, or nil
// when the denominator is zero.
func pct(part, whole int) *float64 {
	if whole == 0 {
		return nil
	}
	v := round2(float64(part) / float64(whole) * percentMultiplier)
	return &v
}

// ComputeOutfield tallies field-player aggregates.
func ComputeOutfield(events []model.Event) Outfield {
	var o Outfield
	for _, e := range events {
		if e.Position != model.PositionField {
			continue
		}
		switch e.Type {
		case model.TypeShot:
			o.Shots++
			if e.OnTarget {
				o.OnTarget++
			}
		case model.TypeAssist:
			o.Assists++
		case model.TypePass:
			o.Passes++
		}
		if isGoal(e) {
			o.Goals++
		}
	}
	o.GoalPct = pct(o.Goals, o.Shots)
	o.TargetPct = pct(o.OnTarget, o.Shots)
	return o
}

// ComputeKeeper tallies goalkeeper aggregates.
func ComputeKeeper(events []model.Event) Keeper {
	var k Keeper
	for _, e := range events {
		if e.Position != model.PositionKeeper {
			continue
		}
		switch e.Type {
		case model.TypeShotOnGoalAgainst:
			k.ShotsOnAgainst++
		case model.TypeSave:
			k.Saves++
		case model.TypeConcede:
			k.GoalsAllowed++
		}
	}
	k.SavePct = pct(k.Saves, k.ShotsOnAgainst)
	return k
}

// ComputeSeries buckets field shots and goals by calendar date. The date is
// taken from the event timestamp as recorded, without timezone conversion.
func ComputeSeries(events []model.Event) Series {
	type bucket struct{ goals, shots int }
	byDate := make(map[string]*bucket)
	get := func(day string) *bucket {
		b, ok := byDate[day]
		if !ok {
			b = &bucket{}
			byDate[day] = b
		}
		return b
	}
	for _, e := range events {
		if e.Position != model.PositionField {
			continue
		}
		day := e.TS.Format(time.DateOnly)
		if isGoal(e) {
			get(day).goals++
		}
		if e.Type == model.TypeShot {
			get(day).shots++
		}
	}

	s := Series{
		Dates: make([]string, 0, len(byDate)),
		Goals: make([]int, 0, len(byDate)),
		Shots: make([]int, 0, len(byDate)),
	}
	for day := range byDate {
		s.Dates = append(s.Dates, day)
	}
	sort.Strings(s.Dates)
	for _, day := range s.Dates {
		s.Goals = append(s.Goals, byDate[day].goals)
		s.Shots = append(s.Shots, byDate[day].shots)
	}
	return s
}

// EvaluateMetric computes the current measured value for one metric over the
// event set. The second return reports whether the metric kind is known.
//
// goals_per_week keeps the historical behavior of counting goal events dated
// today or later; it does not yet implement a trailing seven-day window.
// shots_per_training returns the raw shot total because no training-session
// entity exists to average over.
func EvaluateMetric(metric Metric, events []model.Event) (*float64, bool) {
	switch metric {
	case MetricGoalsPerWeek:
		today := time.Now().Format(time.DateOnly)
		n := 0
		for _, e := range events {
			if isGoal(e) && e.TS.Format(time.DateOnly) >= today {
				n++
			}
		}
		v := float64(n)
		return &v, true
	case MetricSavePercentage:
		k := ComputeKeeper(events)
		return k.SavePct, true
	case MetricShotsPerTraining:
		o := ComputeOutfield(events)
		v := float64(o.Shots)
		return &v, true
	default:
		return nil, false
	}
}

// ComputeProgress evaluates every training goal against the event set,
// preserving the input goal order.
func ComputeProgress(goals []model.TrainingGoal, events []model.Event) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress, supported := EvaluateMetric(Metric(g.Metric), events)
		out = append(out, GoalProgress{
			Metric:    g.Metric,
			Target:    g.Target,
			Progress:  progress,
			Supported: supported,
		})
	}
	return out
}

// Compute derives the full report from one scan of the event and goal sets.
func Compute(events []model.Event, goals []model.TrainingGoal) Report {
	return Report{
		Outfield: ComputeOutfield(events),
		Keeper:   ComputeKeeper(events),
		Series:   ComputeSeries(events),
		Goals:    ComputeProgress(goals, events),
	}
}

// Summarize produces the compact summary used by the JSON stats endpoint.
func Summarize(events []model.Event) Summary {
	o := ComputeOutfield(events)
	k := ComputeKeeper(events)
	return Summary{
		TotalShots:   o.Shots,
		TotalGoals:   o.Goals,
		TotalAssists: o.Assists,
		KeeperSaves:  k.Saves,
	}
}
