package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Repository, error) {
	poolCfg, err := buildPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: pool}, nil
}

func buildPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

	return poolCfg, nil
}

func (r *Repository) Close() {
	r.db.Close()
}

func (r *Repository) GetSnapshot(ctx context.Context, id string) (models.Snapshot, error) {
	const snapshotQuery = `
		SELECT snapshot_id, use_allow_list
		FROM snapshots
		WHERE snapshot_id = $1
	`

	var (
		snap         models.Snapshot
		useAllowList bool
	)
	err := r.db.QueryRow(ctx, snapshotQuery, id).Scan(&snap.ID, &useAllowList)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Snapshot{}, derr.ErrSnapshotNotFound
		}
		return models.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	if snap.Stands, err = r.stands(ctx, id); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Turns, err = r.turns(ctx, id); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Rules, err = r.rules(ctx, id); err != nil {
		return models.Snapshot{}, err
	}
	if useAllowList {
		if snap.AllowList, err = r.allowList(ctx, id); err != nil {
			return models.Snapshot{}, err
		}
	}

	return snap, nil
}

func (r *Repository) stands(ctx context.Context, snapshotID string) ([]models.Stand, error) {
	const query = `
		SELECT stand_id, COALESCE(max_category, '')
		FROM snapshot_stands
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query stands: %w", err)
	}
	defer rows.Close()

	stands := make([]models.Stand, 0, 16)
	for rows.Next() {
		var stand models.Stand
		if err := rows.Scan(&stand.ID, &stand.MaxCategory); err != nil {
			return nil, fmt.Errorf("scan stand: %w", err)
		}
		stands = append(stands, stand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stands: %w", err)
	}

	return stands, nil
}

func (r *Repository) turns(ctx context.Context, snapshotID string) ([]models.Turn, error) {
	const query = `
		SELECT flight_id, COALESCE(category, ''), arrival_utc, departure_utc
		FROM snapshot_turns
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := make([]models.Turn, 0, 64)
	for rows.Next() {
		var turn models.Turn
		if err := rows.Scan(&turn.FlightID, &turn.Category, &turn.Arrival, &turn.Departure); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Arrival = turn.Arrival.UTC()
		turn.Departure = turn.Departure.UTC()
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

func (r *Repository) rules(ctx context.Context, snapshotID string) ([]models.AdjacencyRule, error) {
	const query = `
		SELECT
			rule_id,
			COALESCE(name, ''),
			COALESCE(description, ''),
			stand_a,
			stand_b,
			shadow_a_start_anchor,
			shadow_a_start_offset_seconds,
			shadow_a_end_anchor,
			shadow_a_end_offset_seconds,
			shadow_b_start_anchor,
			shadow_b_start_offset_seconds,
			shadow_b_end_anchor,
			shadow_b_end_offset_seconds
		FROM snapshot_adjacency_rules
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query adjacency rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.AdjacencyRule, 0, 8)
	for rows.Next() {
		var (
			rule                     models.AdjacencyRule
			aStartAnchor, aEndAnchor string
			bStartAnchor, bEndAnchor string
			aStartOffset, aEndOffset int64
			bStartOffset, bEndOffset int64
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.StandA,
			&rule.StandB,
			&aStartAnchor,
			&aStartOffset,
			&aEndAnchor,
			&aEndOffset,
			&bStartAnchor,
			&bStartOffset,
			&bEndAnchor,
			&bEndOffset,
		); err != nil {
			return nil, fmt.Errorf("scan adjacency rule: %w", err)
		}

		if rule.ShadowA, err = shadowSpec(aStartAnchor, aStartOffset, aEndAnchor, aEndOffset); err != nil {
			return nil, fmt.Errorf("adjacency rule %q shadow_a: %w", rule.ID, err)
		}
		if rule.ShadowB, err = shadowSpec(bStartAnchor, bStartOffset, bEndAnchor, bEndOffset); err != nil {
			return nil, fmt.Errorf("adjacency rule %q shadow_b: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjacency rules: %w", err)
	}

	return rules, nil
}

func shadowSpec(startAnchor string, startOffset int64, endAnchor string, endOffset int64) (models.ShadowSpec, error) {
	start, err := models.ParseAnchor(startAnchor)
	if err != nil {
		return models.ShadowSpec{}, err
	}
	end, err := models.ParseAnchor(endAnchor)
	if err != nil {
		return models.ShadowSpec{}, err
	}
	return models.ShadowSpec{
		StartAnchor: start,
		StartOffset: time.Duration(startOffset) * time.Second,
		EndAnchor:   end,
		EndOffset:   time.Duration(endOffset) * time.Second,
	}, nil
}

func (r *Repository) allowList(ctx context.Context, snapshotID string) (map[string][]string, error) {
	const query = `
		SELECT flight_id, stand_id
		FROM snapshot_allowed_stands
		WHERE snapshot_id = $1
		ORDER BY flight_id ASC, stand_id ASC
	`

	rows, err := r.db.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query allowed stands: %w", err)
	}
	defer rows.Close()

	allow := make(map[string][]string)
	for rows.Next() {
		var flightID, standID string
		if err := rows.Scan(&flightID, &standID); err != nil {
			return nil, fmt.Errorf("scan allowed stand: %w", err)
		}
		allow[flightID] = append(allow[flightID], standID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowed stands: %w", err)
	}

	return allow, nil
}

// SaveResult records a run and its assignments in one transaction.
func (r *Repository) SaveResult(ctx context.Context, result models.Result) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save allocation run: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const runQuery = `
		INSERT INTO allocation_runs (
			run_id,
			snapshot_id,
			fingerprint,
			status,
			candidates,
			shadows,
			no_overlap_constraints,
			build_duration_ms,
			solve_duration_ms,
			solved_at
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.Exec(ctx, runQuery,
		result.RunID,
		result.SnapshotID,
		result.Fingerprint,
		result.Status.String(),
		result.Stats.Candidates,
		result.Stats.Shadows,
		result.Stats.NoOverlap,
		result.Stats.BuildDuration.Milliseconds(),
		result.Stats.SolveDuration.Milliseconds(),
		result.SolvedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert allocation run: %w", err)
	}

	if result.Solution != nil && len(result.Solution.Assignments) > 0 {
		const assignmentQuery = `
			INSERT INTO allocation_assignments (run_id, position, flight_id, stand_id)
			VALUES ($1, $2, $3, $4)
		`

		batch := &pgx.Batch{}
		for i, a := range result.Solution.Assignments {
			batch.Queue(assignmentQuery, result.RunID, i, a.FlightID, a.StandID)
		}
		br := tx.SendBatch(ctx, batch)
		for range result.Solution.Assignments {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert allocation assignment: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close allocation assignments batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit allocation run: %w", err)
	}

	return nil
}

func (r *Repository) GetResult(ctx context.Context, runID string) (models.Result, error) {
	const runQuery = `
		SELECT
			run_id,
			COALESCE(snapshot_id, ''),
			fingerprint,
			status,
			candidates,
			shadows,
			no_overlap_constraints,
			build_duration_ms,
			solve_duration_ms,
			solved_at
		FROM allocation_runs
		WHERE run_id = $1
	`

	// run_id is a uuid column; anything else cannot name a stored run.
	id, err := uuid.Parse(strings.TrimSpace(runID))
	if err != nil {
		return models.Result{}, derr.ErrResultNotFound
	}

	var (
		result           models.Result
		status           string
		buildMs, solveMs int64
	)
	err = r.db.QueryRow(ctx, runQuery, id.String()).Scan(
		&result.RunID,
		&result.SnapshotID,
		&result.Fingerprint,
		&status,
		&result.Stats.Candidates,
		&result.Stats.Shadows,
		&result.Stats.NoOverlap,
		&buildMs,
		&solveMs,
		&result.SolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Result{}, derr.ErrResultNotFound
		}
		return models.Result{}, fmt.Errorf("query allocation run: %w", err)
	}
	result.Status = models.ParseStatus(status)
	result.Stats.BuildDuration = time.Duration(buildMs) * time.Millisecond
	result.Stats.SolveDuration = time.Duration(solveMs) * time.Millisecond
	result.SolvedAt = result.SolvedAt.UTC()

	if result.Status != models.StatusFeasible {
		return result, nil
	}

	const assignmentsQuery = `
		SELECT flight_id, stand_id
		FROM allocation_assignments
		WHERE run_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, assignmentsQuery, runID)
	if err != nil {
		return models.Result{}, fmt.Errorf("query allocation assignments: %w", err)
	}
	defer rows.Close()

	sol := models.Solution{}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.FlightID, &a.StandID); err != nil {
			return models.Result{}, fmt.Errorf("scan allocation assignment: %w", err)
		}
		sol.Assignments = append(sol.Assignments, a)
	}

	if err := rows.Err(); err != nil {
		return models.Result{}, fmt.Errorf("iterate allocation assignments: %w", err)
	}

	result.Solution = &sol
	result.Stats.Turns = len(sol.Assignments)
	return result, nil
}

// Migrate applies every .sql file in fsys in name order. Statements are
// idempotent, so reruns are safe.
func (r *Repository) Migrate(ctx context.Context, fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.Exec(ctx, string(script)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return names, nil
}
