package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sllynn/airport-stand-allocation/internal/application/service"
	"github.com/sllynn/airport-stand-allocation/internal/config"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/snapshotfile"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/solver/sat"
	"github.com/spf13/cobra"
)

var (
	solveInput     string
	solveOutput    string
	solveTimeLimit time.Duration
	solveLogLevel  string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Allocate a snapshot file and print the assignment",
	Example: `  stand-allocator solve --input examples/snapshot.yaml
  stand-allocator solve --input snapshot.json --output json --time-limit 5s`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveInput, "input", "i", "", "snapshot file (.yaml, .yml or .json)")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "text", "output format: text or json")
	solveCmd.Flags().DurationVar(&solveTimeLimit, "time-limit", 0, "solver time limit (default from config)")
	solveCmd.Flags().StringVar(&solveLogLevel, "log-level", "warn", "log level")
	_ = solveCmd.MarkFlagRequired("input")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	if solveOutput != "text" && solveOutput != "json" {
		return fmt.Errorf("unknown output format %q", solveOutput)
	}

	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	log := setupLogger(solveLogLevel)
	defer func() {
		_ = log.Sync()
	}()

	timeLimit := cfg.Solver.TimeLimit
	if solveTimeLimit > 0 {
		timeLimit = solveTimeLimit
	}

	snap, err := snapshotfile.Load(solveInput)
	if err != nil {
		return err
	}

	allocationService := service.NewAllocationService(
		log,
		sat.NewFactory(cfg.Solver.PollInterval),
		nil, nil, nil, nil,
		timeLimit,
		0,
	)

	result, err := allocationService.Allocate(cmd.Context(), snap)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if solveOutput == "json" {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		printText(out, result)
	}

	return result.Err()
}

type solveOutputDoc struct {
	RunID       string            `json:"run_id"`
	SnapshotID  string            `json:"snapshot_id,omitempty"`
	Fingerprint string            `json:"fingerprint"`
	Status      string            `json:"status"`
	Assignments map[string]string `json:"assignments,omitempty"`
	Candidates  int               `json:"candidates"`
	Shadows     int               `json:"shadows"`
	BuildMS     int64             `json:"build_ms"`
	SolveMS     int64             `json:"solve_ms"`
}

func printJSON(w io.Writer, result models.Result) error {
	doc := solveOutputDoc{
		RunID:       result.RunID,
		SnapshotID:  result.SnapshotID,
		Fingerprint: result.Fingerprint,
		Status:      result.Status.String(),
		Candidates:  result.Stats.Candidates,
		Shadows:     result.Stats.Shadows,
		BuildMS:     result.Stats.BuildDuration.Milliseconds(),
		SolveMS:     result.Stats.SolveDuration.Milliseconds(),
	}
	if result.Solution != nil {
		doc.Assignments = result.Solution.ByFlight()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printText(w io.Writer, result models.Result) {
	if f, ok := w.(*os.File); !ok || f != os.Stdout {
		color.NoColor = true
	}

	header := color.New(color.Bold, color.FgYellow)
	switch result.Status {
	case models.StatusFeasible:
		header = color.New(color.Bold, color.FgGreen)
	case models.StatusInfeasible:
		header = color.New(color.Bold, color.FgRed)
	}

	_, _ = header.Fprintf(w, "Status: %s\n", result.Status)
	if result.Solution != nil {
		stand := color.New(color.FgCyan)
		for _, a := range result.Solution.Assignments {
			_, _ = fmt.Fprintf(w, "Turn %s assigned to -> Stand %s\n", a.FlightID, stand.Sprint(a.StandID))
		}
	}

	faint := color.New(color.Faint)
	_, _ = faint.Fprintf(w,
		"turns=%d stands=%d rules=%d candidates=%d shadows=%d build=%s solve=%s\n",
		result.Stats.Turns,
		result.Stats.Stands,
		result.Stats.Rules,
		result.Stats.Candidates,
		result.Stats.Shadows,
		result.Stats.BuildDuration.Round(time.Microsecond),
		result.Stats.SolveDuration.Round(time.Microsecond),
	)
}
