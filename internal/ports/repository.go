package ports

import (
	"context"

	"orderBlocks/internal/domain"
)

// AnalysisRepository defines the interface for storing and retrieving analysis results.
type AnalysisRepository interface {
	// SaveRun stores a run together with its shapes and returns the assigned ID.
	SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error)
	// FindRun retrieves a run and its shapes by ID.
	// Returns nil, nil if not found.
	FindRun(ctx context.Context, id string) (*domain.AnalysisRun, error)
	// ListRuns retrieves the most recent runs for a symbol (without shapes), up to a limit.
	ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.AnalysisRun, error)
	// FindShapes retrieves the shapes of a run in render order.
	FindShapes(ctx context.Context, runID string) ([]domain.Shape, error)
}
