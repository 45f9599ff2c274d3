package http

import (
	"time"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

type assignmentResponse struct {
	FlightID string `json:"flight_id"`
	StandID  string `json:"stand_id"`
}

type statsResponse struct {
	Turns           int     `json:"turns"`
	Stands          int     `json:"stands"`
	Rules           int     `json:"rules"`
	Candidates      int     `json:"candidates"`
	Shadows         int     `json:"shadows"`
	ExactlyOne      int     `json:"exactly_one_constraints"`
	NoOverlap       int     `json:"no_overlap_constraints"`
	BuildDurationMs float64 `json:"build_duration_ms"`
	SolveDurationMs float64 `json:"solve_duration_ms"`
	Cached          bool    `json:"cached"`
}

type allocationResponse struct {
	RunID       string               `json:"run_id"`
	SnapshotID  string               `json:"snapshot_id,omitempty"`
	Fingerprint string               `json:"fingerprint"`
	Status      string               `json:"status"`
	SolvedAt    time.Time            `json:"solved_at"`
	Assignments []assignmentResponse `json:"assignments"`
	Stats       statsResponse        `json:"stats"`
}

func toAllocationResponse(result models.Result) allocationResponse {
	resp := allocationResponse{
		RunID:       result.RunID,
		SnapshotID:  result.SnapshotID,
		Fingerprint: result.Fingerprint,
		Status:      result.Status.String(),
		SolvedAt:    result.SolvedAt.UTC(),
		Assignments: []assignmentResponse{},
		Stats: statsResponse{
			Turns:           result.Stats.Turns,
			Stands:          result.Stats.Stands,
			Rules:           result.Stats.Rules,
			Candidates:      result.Stats.Candidates,
			Shadows:         result.Stats.Shadows,
			ExactlyOne:      result.Stats.ExactlyOne,
			NoOverlap:       result.Stats.NoOverlap,
			BuildDurationMs: milliseconds(result.Stats.BuildDuration),
			SolveDurationMs: milliseconds(result.Stats.SolveDuration),
			Cached:          result.Stats.Cached,
		},
	}

	if result.Solution != nil {
		for _, a := range result.Solution.Assignments {
			resp.Assignments = append(resp.Assignments, assignmentResponse{FlightID: a.FlightID, StandID: a.StandID})
		}
	}

	return resp
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
