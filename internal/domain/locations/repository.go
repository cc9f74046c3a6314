package locations

import (
	"context"

	"stockyard/internal/core/id"
)

// Repository defines persistence operations for locations.
type Repository interface {
	// Create inserts a new location
	Create(ctx context.Context, loc *Location) error

	// GetByID retrieves a location by ID
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)

	// Update modifies an existing location (with optimistic locking)
	Update(ctx context.Context, loc *Location) error

	// SetDeletionMark sets or clears the soft-delete mark
	SetDeletionMark(ctx context.Context, locationID id.ID, marked bool) error

	// List retrieves locations, optionally filtered by type.
	// Results are ordered by ID; UUIDv7 makes that creation order.
	List(ctx context.Context, filter ListFilter) ([]*Location, error)

	// FirstChild returns the earliest-created live child of parentID
	// with the given type, or nil when none exists.
	FirstChild(ctx context.Context, parentID id.ID, childType LocationType) (*Location, error)

	// FindMainStore returns the live MAIN_STORE, or nil when none exists.
	FindMainStore(ctx context.Context) (*Location, error)

	// HasChildren reports whether any live location references locationID
	// as its parent.
	HasChildren(ctx context.Context, locationID id.ID) (bool, error)
}

// ListFilter narrows location listings.
type ListFilter struct {
	Type           *LocationType
	ParentID       *id.ID
	IncludeDeleted bool
}
