package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"tracksmith/pkg/analysis"
	"tracksmith/pkg/model"
	"tracksmith/pkg/store"
	"tracksmith/pkg/tracker"
)

// In-memory store for API testing.
type apiMockStore struct {
	runs  map[string]*store.Run
	trajs map[int64]*model.Trajectory[model.TerrestrialPoint]
	byRun map[string][]store.TrajectorySummary
}

func newAPIMockStore() *apiMockStore {
	return &apiMockStore{
		runs:  make(map[string]*store.Run),
		trajs: make(map[int64]*model.Trajectory[model.TerrestrialPoint]),
		byRun: make(map[string][]store.TrajectorySummary),
	}
}

func (m *apiMockStore) CreateRun(ctx context.Context, source string) (*store.Run, error) {
	return nil, nil
}
func (m *apiMockStore) FinishRun(ctx context.Context, run *store.Run) error { return nil }
func (m *apiMockStore) GetRun(ctx context.Context, id string) (*store.Run, error) {
	return m.runs[id], nil
}
func (m *apiMockStore) ListRuns(ctx context.Context) ([]*store.Run, error) {
	var out []*store.Run
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}
func (m *apiMockStore) SaveTrajectory(ctx context.Context, runID string, t *model.Trajectory[model.TerrestrialPoint]) (int64, error) {
	return 0, nil
}
func (m *apiMockStore) ListTrajectories(ctx context.Context, runID string) ([]store.TrajectorySummary, error) {
	return m.byRun[runID], nil
}
func (m *apiMockStore) GetTrajectory(ctx context.Context, id int64) (*model.Trajectory[model.TerrestrialPoint], error) {
	return m.trajs[id], nil
}

func testServer(m *apiMockStore) *http.Server {
	return NewServer("localhost:0",
		NewRunHandler(m),
		NewTrajectoryHandler(m),
		NewStatsHandler(tracker.New()),
		func() {})
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(newAPIMockStore())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health returned %d", rec.Code)
	}
}

func TestHandleGetRun(t *testing.T) {
	m := newAPIMockStore()
	m.runs["abc"] = &store.Run{ID: "abc", Source: "points.csv", StartedAt: time.Now()}
	srv := testServer(m)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var run store.Run
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "abc" || run.Source != "points.csv" {
		t.Errorf("unexpected run %+v", run)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing run, got %d", rec.Code)
	}
}

func TestHandleListTrajectories(t *testing.T) {
	m := newAPIMockStore()
	m.byRun["abc"] = []store.TrajectorySummary{
		{ID: 1, RunID: "abc", ObjectID: "bus-7", PointCount: 5},
	}
	srv := testServer(m)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/abc/trajectories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []store.TrajectorySummary
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ObjectID != "bus-7" {
		t.Errorf("unexpected list %+v", list)
	}

	// Unknown run yields an empty array, not null
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/none/trajectories", nil))
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty array, got %q", body)
	}
}

func TestHandleGetTrajectoryGeoJSON(t *testing.T) {
	m := newAPIMockStore()
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	traj := model.NewTrajectory(model.TerrestrialPoint{ID: "bus-7", At: base, Coord: orb.Point{13.4, 52.5}})
	traj.Append(model.TerrestrialPoint{ID: "bus-7", At: base.Add(10 * time.Second), Coord: orb.Point{13.41, 52.51}})
	m.trajs[1] = traj
	srv := testServer(m)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trajectories/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	if fc.Features[0].Properties["object_id"] != "bus-7" {
		t.Errorf("unexpected properties %+v", fc.Features[0].Properties)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trajectories/notanumber", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestHandleTrajectorySummary(t *testing.T) {
	m := newAPIMockStore()
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	traj := model.NewTrajectory(model.TerrestrialPoint{ID: "bus-7", At: base, Coord: orb.Point{13.4, 52.5}})
	traj.Append(model.TerrestrialPoint{ID: "bus-7", At: base.Add(10 * time.Second), Coord: orb.Point{13.41, 52.5}})
	m.trajs[1] = traj
	srv := testServer(m)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trajectories/1/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sum analysis.Summary
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.ObjectID != "bus-7" || sum.PointCount != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.AvgSpeedMps <= 0 {
		t.Errorf("expected positive average speed, got %f", sum.AvgSpeedMps)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trajectories/99/summary", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing trajectory, got %d", rec.Code)
	}
}

func TestHandleStats(t *testing.T) {
	m := newAPIMockStore()
	srv := testServer(m)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Diagnostics.PID == 0 {
		t.Error("diagnostics missing pid")
	}
}
