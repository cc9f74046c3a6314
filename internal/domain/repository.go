// Package domain provides shared business-logic types for the workflow
// packages (filtering, pagination, lifecycle hooks).
package domain

import (
	"context"

	"stockyard/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g., "number", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Hooks ---

// Hook is a function that runs at a workflow lifecycle point.
// Hooks fire after the owning transaction commits; a hook error is
// logged by the caller, never propagated into the committed operation.
type Hook[T any] func(ctx context.Context, entity T) error
