package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrintTextListsAssignments(t *testing.T) {
	var buf bytes.Buffer
	printText(&buf, models.Result{
		Status: models.StatusFeasible,
		Solution: &models.Solution{Assignments: []models.Assignment{
			{FlightID: "FR13", StandID: "2L"},
			{FlightID: "FR42", StandID: "1C"},
		}},
		Stats: models.Stats{Turns: 2, Stands: 5, Candidates: 8},
	})

	out := buf.String()
	for _, want := range []string{
		"Status: FEASIBLE",
		"Turn FR13 assigned to -> Stand 2L",
		"Turn FR42 assigned to -> Stand 1C",
		"candidates=8",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output misses %q:\n%s", want, out)
		}
	}
}

func TestPrintJSONOmitsAssignmentsWhenInfeasible(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, models.Result{Status: models.StatusInfeasible}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	if strings.Contains(buf.String(), "assignments") {
		t.Fatalf("unexpected assignments: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"status": "INFEASIBLE"`) {
		t.Fatalf("missing status: %s", buf.String())
	}
}
