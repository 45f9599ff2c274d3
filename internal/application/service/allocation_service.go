package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sllynn/airport-stand-allocation/internal/application/feasibility"
	"github.com/sllynn/airport-stand-allocation/internal/application/model"
	"github.com/sllynn/airport-stand-allocation/internal/application/verify"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "stand-allocator/service"

// Problem is a validated snapshot reduced to what the model builders consume.
type Problem struct {
	SnapshotID  string
	Fingerprint string
	Matrix      *feasibility.Matrix
	Rules       []models.AdjacencyRule
}

type AllocationService struct {
	log       *zap.Logger
	factory   ports.ModelFactory
	snapshots ports.SnapshotRepository
	results   ports.ResultRepository
	cache     ports.ResultCache
	metrics   ports.SolveMetrics
	timeLimit time.Duration
	cacheTTL  time.Duration

	now      func() time.Time
	newRunID func() string
}

func NewAllocationService(
	log *zap.Logger,
	factory ports.ModelFactory,
	snapshots ports.SnapshotRepository,
	results ports.ResultRepository,
	cache ports.ResultCache,
	metrics ports.SolveMetrics,
	timeLimit time.Duration,
	cacheTTL time.Duration,
) *AllocationService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AllocationService{
		log:       log,
		factory:   factory,
		snapshots: snapshots,
		results:   results,
		cache:     cache,
		metrics:   metrics,
		timeLimit: timeLimit,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		newRunID:  func() string { return uuid.NewString() },
	}
}

// Prepare validates a snapshot and builds its feasibility matrix. Every
// failure wraps ErrConfiguration and no model is created.
func (s *AllocationService) Prepare(ctx context.Context, snap models.Snapshot) (Problem, error) {
	const op = "service.Prepare"

	if err := snap.Validate(); err != nil {
		return Problem{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		fm  *feasibility.Matrix
		err error
	)
	if snap.AllowList != nil {
		fm, err = feasibility.FromAllowList(snap.Turns, snap.Stands, snap.AllowList)
	} else {
		fm, err = feasibility.FromPredicate(ctx, snap.Turns, snap.Stands, feasibility.CategoryCompatible)
	}
	if err != nil {
		return Problem{}, fmt.Errorf("%s: %w", op, err)
	}

	fingerprint, err := Fingerprint(snap)
	if err != nil {
		return Problem{}, fmt.Errorf("%s: %w", op, err)
	}

	return Problem{
		SnapshotID:  snap.ID,
		Fingerprint: fingerprint,
		Matrix:      fm,
		Rules:       models.NormalizeRules(snap.Rules),
	}, nil
}

// Allocate solves an inline snapshot, serving definitive results from the
// cache when one is configured.
func (s *AllocationService) Allocate(ctx context.Context, snap models.Snapshot) (models.Result, error) {
	const op = "service.Allocate"
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("allocation.snapshot_id", snap.ID),
		attribute.Int("allocation.turns", len(snap.Turns)),
		attribute.Int("allocation.stands", len(snap.Stands)),
		attribute.Int("allocation.rules", len(snap.Rules)),
	)

	logger := s.log.With(
		zap.String("op", op),
		zap.String("snapshot_id", snap.ID),
	)

	problem, err := s.Prepare(ctx, snap)
	if err != nil {
		logger.Warn("invalid snapshot", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "invalid snapshot")
		return models.Result{}, err
	}
	span.SetAttributes(attribute.String("allocation.fingerprint", problem.Fingerprint))
	logger = logger.With(zap.String("fingerprint", problem.Fingerprint))

	if cached, ok := s.fromCache(ctx, logger, problem); ok {
		span.AddEvent("allocation.cache.hit")
		span.SetAttributes(attribute.String("allocation.status", cached.Status.String()))
		if s.metrics != nil {
			s.metrics.ObserveSolve(cached)
		}
		span.SetStatus(otelcodes.Ok, "ok")
		return cached, nil
	}

	result, err := s.Solve(ctx, problem)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "solve failed")
		return models.Result{}, err
	}

	if s.cache != nil && result.Status.Definitive() {
		if err := s.cache.SetByFingerprint(ctx, problem.Fingerprint, result, s.cacheTTL); err != nil {
			logger.Warn("redis cache write failed", zap.Error(err))
			span.RecordError(err)
		}
	}

	if s.results != nil {
		if err := s.results.SaveResult(ctx, result); err != nil {
			logger.Error("failed to persist allocation run", zap.String("run_id", result.RunID), zap.Error(err))
			span.RecordError(err)
		}
	}

	span.SetAttributes(attribute.String("allocation.status", result.Status.String()))
	span.SetStatus(otelcodes.Ok, "ok")
	return result, nil
}

// AllocateSnapshot loads a stored snapshot and allocates it.
func (s *AllocationService) AllocateSnapshot(ctx context.Context, snapshotID string) (models.Result, error) {
	const op = "service.AllocateSnapshot"

	if s.snapshots == nil {
		return models.Result{}, fmt.Errorf("%s: %w", op, derr.ErrSnapshotNotFound)
	}

	snap, err := s.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		s.log.Warn("failed to load snapshot",
			zap.String("op", op),
			zap.String("snapshot_id", snapshotID),
			zap.Error(err),
		)
		return models.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if snap.ID == "" {
		snap.ID = snapshotID
	}

	return s.Allocate(ctx, snap)
}

func (s *AllocationService) GetResult(ctx context.Context, runID string) (models.Result, error) {
	const op = "service.GetResult"

	if s.results == nil {
		return models.Result{}, fmt.Errorf("%s: %w", op, derr.ErrResultNotFound)
	}

	result, err := s.results.GetResult(ctx, runID)
	if err != nil {
		return models.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Solve builds a fresh model for the problem and runs it under the configured
// time limit. A feasible answer is extracted and re-checked before it is
// returned; a disagreement is reported as ErrInternalInconsistency.
func (s *AllocationService) Solve(ctx context.Context, problem Problem) (models.Result, error) {
	const op = "service.Solve"
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	logger := s.log.With(
		zap.String("op", op),
		zap.String("snapshot_id", problem.SnapshotID),
	)

	if s.factory == nil {
		err := fmt.Errorf("%s: no constraint model factory configured", op)
		span.SetStatus(otelcodes.Error, "no model factory")
		return models.Result{}, err
	}

	buildStarted := time.Now()
	_, buildSpan := tracer.Start(ctx, "service.BuildModel",
		trace.WithAttributes(
			attribute.Int("allocation.pairs", problem.Matrix.Pairs()),
			attribute.Int("allocation.rules", len(problem.Rules)),
		),
	)
	m := s.factory.NewModel()
	asm, err := model.BuildAssignments(m, problem.Matrix)
	if err == nil {
		err = model.ApplyAdjacency(m, asm, problem.Rules)
	}
	if err != nil {
		buildSpan.RecordError(err)
		buildSpan.SetStatus(otelcodes.Error, "model build failed")
		buildSpan.End()
		logger.Warn("failed to build allocation model", zap.Error(err))
		span.SetStatus(otelcodes.Error, "model build failed")
		return models.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	buildDuration := time.Since(buildStarted)
	buildSpan.SetAttributes(
		attribute.Int("allocation.candidates", len(asm.Candidates)),
		attribute.Int("allocation.shadows", len(asm.Shadows)),
		attribute.Int("allocation.no_overlap", asm.NoOverlap),
	)
	buildSpan.End()

	solveCtx := ctx
	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}

	solveStarted := time.Now()
	outcome, err := m.Solve(solveCtx)
	solveDuration := time.Since(solveStarted)
	if err != nil {
		logger.Error("constraint engine failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "engine failed")
		return models.Result{}, fmt.Errorf("%s: %w", op, err)
	}

	result := models.Result{
		RunID:       s.newRunID(),
		SnapshotID:  problem.SnapshotID,
		Fingerprint: problem.Fingerprint,
		Status:      outcome.Status,
		SolvedAt:    s.now().UTC(),
		Stats: models.Stats{
			Turns:         len(problem.Matrix.Turns()),
			Stands:        len(problem.Matrix.Stands()),
			Rules:         len(problem.Rules),
			Candidates:    len(asm.Candidates),
			Shadows:       len(asm.Shadows),
			ExactlyOne:    asm.ExactlyOne,
			NoOverlap:     asm.NoOverlap,
			BuildDuration: buildDuration,
			SolveDuration: solveDuration,
		},
	}

	switch outcome.Status {
	case models.StatusFeasible:
		sol, err := verify.Extract(asm, outcome)
		if err == nil {
			err = verify.Check(problem.Matrix, problem.Rules, sol)
		}
		if err != nil {
			logger.Error("solver returned an inconsistent assignment", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, "inconsistent assignment")
			return models.Result{}, fmt.Errorf("%s: %w", op, err)
		}
		result.Solution = &sol
	case models.StatusInfeasible, models.StatusUnknown:
	default:
		err := fmt.Errorf("%s: %w: engine returned status %s", op, derr.ErrInternalInconsistency, outcome.Status)
		logger.Error("unexpected engine status", zap.Error(err))
		span.SetStatus(otelcodes.Error, "unexpected engine status")
		return models.Result{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveSolve(result)
	}

	span.SetAttributes(
		attribute.String("allocation.run_id", result.RunID),
		attribute.String("allocation.status", result.Status.String()),
	)
	span.SetStatus(otelcodes.Ok, "ok")
	logger.Info("allocation solved",
		zap.String("run_id", result.RunID),
		zap.String("status", result.Status.String()),
		zap.Int("candidates", result.Stats.Candidates),
		zap.Int("shadows", result.Stats.Shadows),
		zap.Duration("solve_duration", solveDuration),
	)
	return result, nil
}

func (s *AllocationService) fromCache(ctx context.Context, logger *zap.Logger, problem Problem) (models.Result, bool) {
	if s.cache == nil {
		return models.Result{}, false
	}

	cached, err := s.cache.GetByFingerprint(ctx, problem.Fingerprint)
	if err != nil {
		if errors.Is(err, derr.ErrResultNotFound) {
			logger.Info("allocation cache miss")
		} else {
			logger.Warn("redis cache read failed", zap.Error(err))
		}
		return models.Result{}, false
	}

	if !cached.Status.Definitive() {
		return models.Result{}, false
	}
	if cached.Status == models.StatusFeasible {
		if cached.Solution == nil {
			logger.Warn("cached feasible result has no solution")
			return models.Result{}, false
		}
		if err := verify.Check(problem.Matrix, problem.Rules, *cached.Solution); err != nil {
			logger.Warn("cached solution failed verification", zap.Error(err))
			return models.Result{}, false
		}
	}

	cached.SnapshotID = problem.SnapshotID
	cached.Stats.Cached = true
	logger.Info("allocation cache hit", zap.String("run_id", cached.RunID))
	return cached, true
}
