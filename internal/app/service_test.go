package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/calcio/internal/adapters/repository"
	service "github.com/okian/calcio/internal/app"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	// Start falls back to the global logger when none is injected.
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func startTestService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithSQLitePath(filepath.Join(t.TempDir(), "tracker.db")),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceOptions(t *testing.T) {
	Convey("Given a service built with options", t, func() {
		svc := service.New(
			service.WithDriver("sqlite"),
			service.WithDedupeSize(1234),
			service.WithRecentLimit(9),
		)

		Convey("Then the options are reflected in its stats", func() {
			stats := svc.GetStats()
			So(stats["driver"], ShouldEqual, "sqlite")
			So(stats["dedupeSize"], ShouldEqual, 1234)
			So(stats["recentLimit"], ShouldEqual, 9)
			So(stats["started"], ShouldEqual, false)
		})

		Convey("And non-positive sizes fall back to defaults", func() {
			fallback := service.New(
				service.WithDedupeSize(0),
				service.WithRecentLimit(-1),
			)
			stats := fallback.GetStats()
			So(stats["dedupeSize"], ShouldEqual, 50000)
			So(stats["recentLimit"], ShouldEqual, 6)
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a temp sqlite store", t, func() {
		svc := startTestService(t)

		Convey("Then it reports started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["dedupeEntries"], ShouldEqual, int64(0))
		})

		Convey("And starting twice is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})
	})
}

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := startTestService(t)

		Convey("When a valid event is recorded", func() {
			stored, err := svc.RecordEvent(ctx, model.Event{
				Position: model.PositionField,
				Type:     model.TypeShot,
				OnTarget: true,
			})

			Convey("Then it is persisted with an id and timestamp", func() {
				So(err, ShouldBeNil)
				So(stored.ID, ShouldNotBeEmpty)
				So(stored.TS.IsZero(), ShouldBeFalse)
			})

			Convey("And it shows up in recent events", func() {
				So(err, ShouldBeNil)
				recent, err := svc.Recent(ctx, 10)
				So(err, ShouldBeNil)
				So(len(recent), ShouldEqual, 1)
				So(recent[0].ID, ShouldEqual, stored.ID)
			})
		})

		Convey("When the position and event type do not pair", func() {
			_, err := svc.RecordEvent(ctx, model.Event{
				Position: model.PositionKeeper,
				Type:     model.TypeShot,
			})

			Convey("Then the event is rejected before it reaches the store", func() {
				So(errors.Is(err, model.ErrInvalidEventType), ShouldBeTrue)

				events, err := svc.Recent(ctx, 10)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 0)
			})
		})

		Convey("When the notes exceed the maximum length", func() {
			long := strings.Repeat("x", model.MaxNotesLength+50)
			stored, err := svc.RecordEvent(ctx, model.Event{
				Position: model.PositionField,
				Type:     model.TypePass,
				Notes:    long,
			})

			Convey("Then the notes are truncated, not rejected", func() {
				So(err, ShouldBeNil)
				So(len([]rune(stored.Notes)), ShouldEqual, model.MaxNotesLength)
			})
		})
	})
}

func TestRecentDefaultLimit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a default page size of two", t, func() {
		svc := startTestService(t, service.WithRecentLimit(2))

		for i := 0; i < 5; i++ {
			_, err := svc.RecordEvent(ctx, model.Event{
				Position: model.PositionField,
				Type:     model.TypePass,
			})
			So(err, ShouldBeNil)
		}

		Convey("When no limit is given", func() {
			events, err := svc.Recent(ctx, 0)

			Convey("Then the configured default applies", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 2)
			})
		})

		Convey("When an explicit limit is given", func() {
			events, err := svc.Recent(ctx, 4)

			Convey("Then it wins over the default", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 4)
			})
		})
	})
}

func TestIdempotency(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := startTestService(t)

		Convey("When a submission id is recorded twice", func() {
			So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)

			Convey("Then the replay is flagged", func() {
				So(svc.SeenAndRecord(ctx, "sub-1"), ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a failed insert is unrecorded", func() {
			So(svc.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
			svc.Unrecord(ctx, "sub-2")

			Convey("Then the id can be retried", func() {
				So(svc.SeenAndRecord(ctx, "sub-2"), ShouldBeFalse)
			})
		})
	})
}

func TestGoalsLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := startTestService(t)

		Convey("When goals are added", func() {
			goal, err := svc.AddGoal(ctx, "shots_per_training", 20)
			So(err, ShouldBeNil)
			So(goal.ID, ShouldNotBeEmpty)
			So(goal.CreatedAt.IsZero(), ShouldBeFalse)

			Convey("Then they can be listed", func() {
				goals, err := svc.Goals(ctx)
				So(err, ShouldBeNil)
				So(len(goals), ShouldEqual, 1)
				So(goals[0].Metric, ShouldEqual, "shots_per_training")
			})

			Convey("And removed by id", func() {
				So(svc.RemoveGoal(ctx, goal.ID), ShouldBeNil)

				goals, err := svc.Goals(ctx)
				So(err, ShouldBeNil)
				So(len(goals), ShouldEqual, 0)
			})
		})

		Convey("When removing an unknown goal", func() {
			err := svc.RemoveGoal(ctx, "missing")

			Convey("Then the store's not-found sentinel surfaces", func() {
				So(errors.Is(err, repository.ErrGoalNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestReportAndSummary(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a session of events and one goal", t, func() {
		svc := startTestService(t)

		for _, e := range []model.Event{
			{Position: model.PositionField, Type: model.TypeShot, OnTarget: true, Scored: true},
			{Position: model.PositionField, Type: model.TypeShot},
			{Position: model.PositionField, Type: model.TypeAssist},
			{Position: model.PositionKeeper, Type: model.TypeShotOnGoalAgainst},
			{Position: model.PositionKeeper, Type: model.TypeSave},
		} {
			_, err := svc.RecordEvent(ctx, e)
			So(err, ShouldBeNil)
		}
		_, err := svc.AddGoal(ctx, "save_percentage", 90)
		So(err, ShouldBeNil)

		Convey("When the report is computed", func() {
			report, err := svc.Report(ctx)

			Convey("Then it carries the aggregates and goal progress", func() {
				So(err, ShouldBeNil)
				So(report.Outfield.Shots, ShouldEqual, 2)
				So(report.Outfield.Goals, ShouldEqual, 1)
				So(*report.Outfield.GoalPct, ShouldEqual, 50.0)
				So(report.Keeper.Saves, ShouldEqual, 1)
				So(len(report.Goals), ShouldEqual, 1)
				So(report.Goals[0].Metric, ShouldEqual, "save_percentage")
				So(*report.Goals[0].Progress, ShouldEqual, 100.0)
			})
		})

		Convey("When the summary is computed", func() {
			summary, err := svc.Summary(ctx)

			Convey("Then it exposes the compact counters", func() {
				So(err, ShouldBeNil)
				So(summary.TotalShots, ShouldEqual, 2)
				So(summary.TotalGoals, ShouldEqual, 1)
				So(summary.TotalAssists, ShouldEqual, 1)
				So(summary.KeeperSaves, ShouldEqual, 1)
			})
		})

		Convey("When everything is cleared", func() {
			So(svc.Clear(ctx), ShouldBeNil)

			Convey("Then the report returns to the empty baseline", func() {
				report, err := svc.Report(ctx)
				So(err, ShouldBeNil)
				So(report.Outfield.Shots, ShouldEqual, 0)
				So(report.Outfield.GoalPct, ShouldBeNil)
				So(report.Keeper.SavePct, ShouldBeNil)
				So(len(report.Series.Dates), ShouldEqual, 0)
				So(len(report.Goals), ShouldEqual, 0)
			})
		})
	})
}
