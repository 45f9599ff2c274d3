package errors

import "errors"

var (
	// ErrConfiguration marks malformed input. It is always raised before a solve is attempted.
	ErrConfiguration = errors.New("invalid allocation input")
	ErrInfeasible    = errors.New("no assignment satisfies all constraints")
	ErrUnknown       = errors.New("solver budget exhausted without a proof")
	// ErrInternalInconsistency means a solved model disagrees with an independent
	// re-check of the constraints. It is a defect in model construction.
	ErrInternalInconsistency = errors.New("internal inconsistency in allocation model")
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrResultNotFound        = errors.New("allocation result not found")
)
