package entity

import (
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// MovementReason tags the business source of a stock movement.
// The set is closed; repositories reject unknown reasons at the boundary.
type MovementReason string

const (
	ReasonAdjustment  MovementReason = "adjustment"
	ReasonTransferIn  MovementReason = "transfer-in"
	ReasonTransferOut MovementReason = "transfer-out"
	ReasonSale        MovementReason = "sale"
	ReasonPurchase    MovementReason = "purchase"
)

// ValidReason reports whether r belongs to the closed reason set.
func ValidReason(r MovementReason) bool {
	switch r {
	case ReasonAdjustment, ReasonTransferIn, ReasonTransferOut, ReasonSale, ReasonPurchase:
		return true
	}
	return false
}

// StockRecord is the authoritative quantity row, keyed (product, location).
// Created implicitly on first movement into a location; never physically
// deleted (quantity can reach zero and the record remains).
type StockRecord struct {
	// Dimensions
	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// Resources
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Metadata
	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// StockMovement is an append-only audit entry for one ledger mutation.
// Movements are immutable; for a given ledger key they form a total order
// by creation time, and each Resulting equals the prior Resulting plus Delta.
type StockMovement struct {
	// LineID is the unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// Dimensions
	ProductID  id.ID `db:"product_id" json:"productId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// Delta is the signed quantity change
	Delta types.Quantity `db:"delta" json:"delta"`

	// Resulting is the post-apply quantity snapshot
	Resulting types.Quantity `db:"resulting" json:"resulting"`

	// Reason is the business source tag (closed set)
	Reason MovementReason `db:"reason" json:"reason"`

	// ReferenceID links the movement to its originating document, if any
	// (transfer ID for transfer legs, nil for manual adjustments)
	ReferenceID *id.ID `db:"reference_id" json:"referenceId,omitempty"`

	// Actor is the principal the mutation is attributed to
	Actor string `db:"actor" json:"actor"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement with generated LineID and timestamp.
func NewStockMovement(productID, locationID id.ID, delta, resulting types.Quantity, reason MovementReason, referenceID *id.ID, actor string) StockMovement {
	return StockMovement{
		LineID:      id.New(),
		ProductID:   productID,
		LocationID:  locationID,
		Delta:       delta,
		Resulting:   resulting,
		Reason:      reason,
		ReferenceID: referenceID,
		Actor:       actor,
		CreatedAt:   time.Now().UTC(),
	}
}
