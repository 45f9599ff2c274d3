package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sllynn/airport-stand-allocation/internal/application/service"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/solver/sat"
	"go.uber.org/zap"
)

type testResults struct {
	saved map[string]models.Result
}

func (r *testResults) SaveResult(ctx context.Context, result models.Result) error {
	r.saved[result.RunID] = result
	return nil
}

func (r *testResults) GetResult(ctx context.Context, runID string) (models.Result, error) {
	res, ok := r.saved[runID]
	if !ok {
		return models.Result{}, derr.ErrResultNotFound
	}
	return res, nil
}

type testSnapshots struct {
	snapshots map[string]models.Snapshot
}

func (s *testSnapshots) GetSnapshot(ctx context.Context, id string) (models.Snapshot, error) {
	snap, ok := s.snapshots[id]
	if !ok {
		return models.Snapshot{}, derr.ErrSnapshotNotFound
	}
	return snap, nil
}

const twinsJSON = `{
  "id": "twins",
  "stands": [{"id": "S1"}, {"id": "S2"}],
  "turns": [
    {"flight_id": "T1", "arrival": "2024-05-17T06:00:00Z", "departure": "2024-05-17T07:00:00Z"},
    {"flight_id": "T2", "arrival": "2024-05-17T06:00:00Z", "departure": "2024-05-17T07:00:00Z"}
  ],
  "adjacency_rules": []
}`

const twinsWithRuleYAML = `
id: twins
stands: [{id: S1}, {id: S2}]
turns:
  - {flight_id: T1, arrival: 2024-05-17T06:00:00Z, departure: 2024-05-17T07:00:00Z}
  - {flight_id: T2, arrival: 2024-05-17T06:00:00Z, departure: 2024-05-17T07:00:00Z}
adjacency_rules:
  - {id: wingtip, stand_a: S1, stand_b: S2}
`

func newRouter(t *testing.T, maxBody int64) (http.Handler, *testResults) {
	t.Helper()
	results := &testResults{saved: map[string]models.Result{}}
	snapshots := &testSnapshots{snapshots: map[string]models.Snapshot{
		"stored": {
			Turns: []models.Turn{{
				FlightID:  "T1",
				Arrival:   time.Date(2024, 5, 17, 6, 0, 0, 0, time.UTC),
				Departure: time.Date(2024, 5, 17, 7, 0, 0, 0, time.UTC),
			}},
			Stands: []models.Stand{{ID: "S1"}},
		},
	}}
	svc := service.NewAllocationService(zap.NewNop(), sat.NewFactory(time.Millisecond), snapshots, results, nil, nil, 5*time.Second, 0)

	r := chi.NewRouter()
	Register(r, zap.NewNop(), svc, maxBody)
	return r, results
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) allocationResponse {
	t.Helper()
	var resp allocationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestAllocate_Feasible(t *testing.T) {
	r, results := newRouter(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/allocations", strings.NewReader(twinsJSON))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp.Status != "FEASIBLE" || len(resp.Assignments) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Assignments[0].StandID == resp.Assignments[1].StandID {
		t.Fatalf("overlapping turns share a stand: %+v", resp.Assignments)
	}
	if _, ok := results.saved[resp.RunID]; !ok {
		t.Fatalf("run %s was not persisted", resp.RunID)
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/v1/allocations/"+resp.RunID, nil))
	if get.Code != http.StatusOK || decode(t, get).RunID != resp.RunID {
		t.Fatalf("unexpected stored run response: %d %s", get.Code, get.Body.String())
	}
}

func TestAllocate_InfeasibleIsNotAnError(t *testing.T) {
	r, _ := newRouter(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/allocations", strings.NewReader(twinsWithRuleYAML))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp.Status != "INFEASIBLE" || len(resp.Assignments) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAllocate_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"id":`, want: "invalid allocation input"},
		{name: "unknown field", body: `{"gates":[]}`, want: "invalid allocation input"},
		{name: "empty snapshot", body: `{"id":"x","stands":[],"turns":[],"adjacency_rules":[]}`, want: "no turns"},
		{
			name: "unroutable turn",
			body: `{"stands":[{"id":"S1","max_category":"C"}],"turns":[{"flight_id":"A380","category":"F","arrival":"2024-05-17T06:00:00Z","departure":"2024-05-17T07:00:00Z"}],"adjacency_rules":[]}`,
			want: "no feasible stand for turns A380",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRouter(t, 0)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/allocations", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got %d body=%s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Fatalf("body %q does not mention %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestAllocate_BodyTooLarge(t *testing.T) {
	r, _ := newRouter(t, 16)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/allocations", strings.NewReader(twinsJSON)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAllocateSnapshot(t *testing.T) {
	r, _ := newRouter(t, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/snapshots/stored/allocations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp.SnapshotID != "stored" || resp.Status != "FEASIBLE" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	missing := httptest.NewRecorder()
	r.ServeHTTP(missing, httptest.NewRequest(http.MethodPost, "/v1/snapshots/nope/allocations", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for missing snapshot: %d", missing.Code)
	}
}

func TestGetAllocation_NotFound(t *testing.T) {
	r, _ := newRouter(t, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/allocations/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "allocation result not found") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestMapErrorMessage_HidesInternalDetail(t *testing.T) {
	if got := mapErrorMessage(context.DeadlineExceeded); got != "internal error" {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := mapHTTPStatus(derr.ErrInternalInconsistency); got != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", got)
	}
	if got := mapErrorMessage(derr.ErrInternalInconsistency); got != derr.ErrInternalInconsistency.Error() {
		t.Fatalf("unexpected message: %s", got)
	}
}
