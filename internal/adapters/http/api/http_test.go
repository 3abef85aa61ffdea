package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/calcio/internal/adapters/http/api"
	repository "github.com/okian/calcio/internal/adapters/repository"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

// Stub implementations for testing.

type stubService struct {
	seen map[string]bool

	events []model.Event
	goals  []model.TrainingGoal

	recordErr error
	listErr   error
}

func (s *stubService) SeenAndRecord(_ context.Context, id string) bool {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[id] {
		return true
	}
	s.seen[id] = true
	return false
}

func (s *stubService) Unrecord(_ context.Context, id string) {
	delete(s.seen, id)
}

func (s *stubService) Size() int64 {
	return int64(len(s.seen))
}

func (s *stubService) RecordEvent(_ context.Context, e model.Event) (model.Event, error) {
	if s.recordErr != nil {
		return model.Event{}, s.recordErr
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}
	e.ID = fmt.Sprintf("event-%d", len(s.events)+1)
	if e.TS.IsZero() {
		e.TS = time.Date(2026, 8, 20, 17, 0, 0, 0, time.UTC)
	}
	s.events = append(s.events, e)
	return e, nil
}

func (s *stubService) Recent(_ context.Context, n int) ([]model.Event, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]model.Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *stubService) Report(_ context.Context) (stats.Report, error) {
	if s.listErr != nil {
		return stats.Report{}, s.listErr
	}
	return stats.Compute(s.events, s.goals), nil
}

func (s *stubService) Summary(_ context.Context) (stats.Summary, error) {
	if s.listErr != nil {
		return stats.Summary{}, s.listErr
	}
	return stats.Summarize(s.events), nil
}

func (s *stubService) AddGoal(_ context.Context, metric string, target float64) (model.TrainingGoal, error) {
	g := model.TrainingGoal{
		ID:        fmt.Sprintf("goal-%d", len(s.goals)+1),
		Metric:    metric,
		Target:    target,
		CreatedAt: time.Date(2026, 8, 20, 17, 0, 0, 0, time.UTC),
	}
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *stubService) Goals(_ context.Context) ([]model.TrainingGoal, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.goals, nil
}

func (s *stubService) RemoveGoal(_ context.Context, id string) error {
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return repository.ErrGoalNotFound
}

func (s *stubService) Clear(_ context.Context) error {
	s.events = nil
	s.goals = nil
	return nil
}

func (s *stubService) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"started": true,
		"driver":  "stub",
	}
}

func newTestMux(svc *stubService) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPostEvents(t *testing.T) {
	Convey("Given the events endpoint", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		Convey("When posting a valid field shot", func() {
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"position":"field","event_type":"shot","on_target":true,"scored":true}`)

			Convey("Then the stored event is returned with 201", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var resp map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["id"], ShouldNotBeEmpty)
				So(resp["position"], ShouldEqual, "field")
				So(resp["event_type"], ShouldEqual, "shot")
				So(resp["on_target"], ShouldEqual, true)
				So(resp["scored"], ShouldEqual, true)
			})
		})

		Convey("When posting with an explicit timestamp", func() {
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"position":"keeper","event_type":"save","ts":"2026-08-15T18:45:00Z"}`)

			Convey("Then the timestamp is preserved", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var resp map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["ts"], ShouldStartWith, "2026-08-15T18:45:00")
			})
		})

		Convey("When posting malformed JSON", func() {
			rec := doRequest(mux, http.MethodPost, "/events", `{not json`)

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting without a position", func() {
			rec := doRequest(mux, http.MethodPost, "/events", `{"event_type":"shot"}`)

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting an invalid position and type pairing", func() {
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"position":"keeper","event_type":"shot"}`)

			Convey("Then the vocabulary violation maps to 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When posting with an invalid timestamp", func() {
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"position":"field","event_type":"shot","ts":"yesterday"}`)

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting the same event_id twice", func() {
			body := `{"event_id":"sub-1","position":"field","event_type":"goal"}`
			first := doRequest(mux, http.MethodPost, "/events", body)
			second := doRequest(mux, http.MethodPost, "/events", body)

			Convey("Then the first is created and the replay is acknowledged as duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)

				var ack map[string]interface{}
				So(json.Unmarshal(second.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["duplicate"], ShouldEqual, true)
				So(len(svc.events), ShouldEqual, 1)
			})
		})

		Convey("When the store fails behind an event_id", func() {
			svc.recordErr = errors.New("disk full")
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"event_id":"sub-2","position":"field","event_type":"goal"}`)

			Convey("Then a 500 is returned and the id is released for retry", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)

				svc.recordErr = nil
				retry := doRequest(mux, http.MethodPost, "/events",
					`{"event_id":"sub-2","position":"field","event_type":"goal"}`)
				So(retry.Code, ShouldEqual, http.StatusCreated)
			})
		})
	})
}

func TestGetRecentEvents(t *testing.T) {
	Convey("Given a service holding three events", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		for i := 0; i < 3; i++ {
			rec := doRequest(mux, http.MethodPost, "/events",
				`{"position":"field","event_type":"pass"}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
		}

		Convey("When fetching without a limit", func() {
			rec := doRequest(mux, http.MethodGet, "/events", "")

			Convey("Then all events come back as a JSON array", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var out []map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
				So(len(out), ShouldEqual, 3)
			})
		})

		Convey("When fetching with a limit", func() {
			rec := doRequest(mux, http.MethodGet, "/events?limit=2", "")

			Convey("Then the limit is honored", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var out []map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
				So(len(out), ShouldEqual, 2)
			})
		})

		Convey("When the limit is not a number", func() {
			rec := doRequest(mux, http.MethodGet, "/events?limit=abc", "")

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the configured maximum", func() {
			rec := doRequest(mux, http.MethodGet, "/events?limit=101", "")

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When using an unsupported method", func() {
			rec := doRequest(mux, http.MethodPut, "/events", "{}")

			Convey("Then the route responds 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGetReport(t *testing.T) {
	Convey("Given the report endpoint", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		Convey("When no events exist", func() {
			rec := doRequest(mux, http.MethodGet, "/report", "")

			Convey("Then undefined percentages serialize as JSON null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"goal_percentage":null`)
				So(rec.Body.String(), ShouldContainSubstring, `"save_percentage":null`)
			})
		})

		Convey("When events and goals exist", func() {
			So(doRequest(mux, http.MethodPost, "/events",
				`{"position":"field","event_type":"shot","on_target":true,"scored":true}`).Code,
				ShouldEqual, http.StatusCreated)
			So(doRequest(mux, http.MethodPost, "/goals",
				`{"metric":"shots_per_training","target":20}`).Code,
				ShouldEqual, http.StatusCreated)

			rec := doRequest(mux, http.MethodGet, "/report", "")

			Convey("Then the report carries aggregates, series and goal progress", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var report struct {
					Outfield struct {
						Shots   int      `json:"total_shots"`
						Goals   int      `json:"total_goals"`
						GoalPct *float64 `json:"goal_percentage"`
					} `json:"outfield"`
					Series struct {
						Labels []string `json:"labels"`
					} `json:"series"`
					Goals []struct {
						Metric   string   `json:"metric"`
						Progress *float64 `json:"progress"`
					} `json:"goals_progress"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.Outfield.Shots, ShouldEqual, 1)
				So(report.Outfield.Goals, ShouldEqual, 1)
				So(*report.Outfield.GoalPct, ShouldEqual, 100.0)
				So(len(report.Series.Labels), ShouldEqual, 1)
				So(len(report.Goals), ShouldEqual, 1)
				So(*report.Goals[0].Progress, ShouldEqual, 1)
			})
		})

		Convey("When using POST on the report", func() {
			rec := doRequest(mux, http.MethodPost, "/report", "{}")

			Convey("Then the route responds 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGetSummary(t *testing.T) {
	Convey("Given the machine-readable summary endpoint", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		So(doRequest(mux, http.MethodPost, "/events",
			`{"position":"field","event_type":"shot","scored":true}`).Code,
			ShouldEqual, http.StatusCreated)
		So(doRequest(mux, http.MethodPost, "/events",
			`{"position":"keeper","event_type":"save"}`).Code,
			ShouldEqual, http.StatusCreated)

		Convey("When fetching the summary", func() {
			rec := doRequest(mux, http.MethodGet, "/api/stats", "")

			Convey("Then the four counters are present", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var summary map[string]int
				So(json.Unmarshal(rec.Body.Bytes(), &summary), ShouldBeNil)
				So(summary["total_shots"], ShouldEqual, 1)
				So(summary["total_goals"], ShouldEqual, 1)
				So(summary["total_assists"], ShouldEqual, 0)
				So(summary["keeper_saves"], ShouldEqual, 1)
			})
		})
	})
}

func TestGoalsEndpoint(t *testing.T) {
	Convey("Given the goals endpoint", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		Convey("When creating a goal", func() {
			rec := doRequest(mux, http.MethodPost, "/goals",
				`{"metric":"save_percentage","target":85}`)

			Convey("Then the stored goal comes back with 201", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var goal map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &goal), ShouldBeNil)
				So(goal["id"], ShouldNotBeEmpty)
				So(goal["metric"], ShouldEqual, "save_percentage")
				So(goal["target"], ShouldEqual, 85)
			})
		})

		Convey("When creating a goal without a metric", func() {
			rec := doRequest(mux, http.MethodPost, "/goals", `{"target":85}`)

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing goals", func() {
			So(doRequest(mux, http.MethodPost, "/goals",
				`{"metric":"goals_per_week","target":3}`).Code, ShouldEqual, http.StatusCreated)

			rec := doRequest(mux, http.MethodGet, "/goals", "")

			Convey("Then the goals come back as a JSON array", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var goals []map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &goals), ShouldBeNil)
				So(len(goals), ShouldEqual, 1)
				So(goals[0]["metric"], ShouldEqual, "goals_per_week")
			})
		})

		Convey("When deleting a goal by id", func() {
			create := doRequest(mux, http.MethodPost, "/goals",
				`{"metric":"goals_per_week","target":3}`)
			So(create.Code, ShouldEqual, http.StatusCreated)

			var goal map[string]interface{}
			So(json.Unmarshal(create.Body.Bytes(), &goal), ShouldBeNil)

			rec := doRequest(mux, http.MethodDelete, "/goals/"+goal["id"].(string), "")

			Convey("Then the goal is gone", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(len(svc.goals), ShouldEqual, 0)
			})
		})

		Convey("When deleting an unknown goal", func() {
			rec := doRequest(mux, http.MethodDelete, "/goals/missing", "")

			Convey("Then the response is 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, "not_found")
			})
		})

		Convey("When deleting without an id", func() {
			rec := doRequest(mux, http.MethodDelete, "/goals/", "")

			Convey("Then the request is rejected with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAdminClear(t *testing.T) {
	Convey("Given a populated service", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		So(doRequest(mux, http.MethodPost, "/events",
			`{"position":"field","event_type":"goal"}`).Code, ShouldEqual, http.StatusCreated)
		So(doRequest(mux, http.MethodPost, "/goals",
			`{"metric":"goals_per_week","target":3}`).Code, ShouldEqual, http.StatusCreated)

		Convey("When the store is cleared", func() {
			rec := doRequest(mux, http.MethodPost, "/admin/clear", "")

			Convey("Then everything is removed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "cleared")
				So(len(svc.events), ShouldEqual, 0)
				So(len(svc.goals), ShouldEqual, 0)
			})

			Convey("And the stats return to the empty baseline", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				report := doRequest(mux, http.MethodGet, "/report", "")
				So(report.Code, ShouldEqual, http.StatusOK)
				So(report.Body.String(), ShouldContainSubstring, `"total_shots":0`)
				So(report.Body.String(), ShouldContainSubstring, `"goal_percentage":null`)
			})
		})

		Convey("When using GET on the clear endpoint", func() {
			rec := doRequest(mux, http.MethodGet, "/admin/clear", "")

			Convey("Then the route responds 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestMonitoringEndpoints(t *testing.T) {
	Convey("Given the monitoring routes", t, func() {
		svc := &stubService{}
		mux := newTestMux(svc)

		Convey("When fetching service stats", func() {
			rec := doRequest(mux, http.MethodGet, "/stats", "")

			Convey("Then the service state is exposed as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var out map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
				So(out["started"], ShouldEqual, true)
				So(out["driver"], ShouldEqual, "stub")
			})
		})

		Convey("When fetching the health endpoint", func() {
			rec := doRequest(mux, http.MethodGet, "/healthz", "")

			Convey("Then it responds 200 with Prometheus metrics", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
