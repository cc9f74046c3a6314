// Package ledger provides the authoritative stock ledger: one quantity
// row per (product, location) plus an append-only movement history.
package ledger

import (
	"context"
	"time"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// Repository defines persistence operations for the stock ledger.
type Repository interface {
	// Record operations

	// GetRecord returns the current record for product+location.
	// A missing row is returned as a zero-quantity record, not an error.
	GetRecord(ctx context.Context, productID, locationID id.ID) (entity.StockRecord, error)

	// GetRecordForUpdate returns the record with a row lock so concurrent
	// appliers to the same ledger key serialize. Requires an active
	// transaction in context.
	GetRecordForUpdate(ctx context.Context, productID, locationID id.ID) (entity.StockRecord, error)

	// UpsertRecord writes the record, creating it on first movement.
	UpsertRecord(ctx context.Context, record entity.StockRecord) error

	// ListRecords returns records matching the filter.
	ListRecords(ctx context.Context, filter RecordFilter) ([]entity.StockRecord, error)

	// HasRecordsForLocation reports whether any record references the location.
	HasRecordsForLocation(ctx context.Context, locationID id.ID) (bool, error)

	// Movement operations

	// CreateMovement appends one movement row.
	CreateMovement(ctx context.Context, movement entity.StockMovement) error

	// ListMovements returns movements ordered by creation time ascending.
	ListMovements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error)
}

// RecordFilter for filtering record queries.
type RecordFilter struct {
	LocationID *id.ID
	ProductIDs []id.ID
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	ProductID  *id.ID
	LocationID *id.ID
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
