package ports

import (
	"context"
	"time"

	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, id string) (models.Snapshot, error)
}

type ResultRepository interface {
	SaveResult(ctx context.Context, result models.Result) error
	GetResult(ctx context.Context, runID string) (models.Result, error)
}

// ResultCache stores definitive results keyed by snapshot fingerprint.
type ResultCache interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (models.Result, error)
	SetByFingerprint(ctx context.Context, fingerprint string, result models.Result, ttl time.Duration) error
}

type SolveMetrics interface {
	ObserveSolve(result models.Result)
}
