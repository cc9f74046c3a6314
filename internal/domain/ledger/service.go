package ledger

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/pkg/logger"
)

// Service provides business operations for the stock ledger.
// All StockRecord writes in the system go through this service; that is
// what keeps the movement log complete.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// MovementInput describes one ledger mutation.
type MovementInput struct {
	ProductID  id.ID
	LocationID id.ID
	// Delta may be positive or negative
	Delta types.Quantity
	// Reason must belong to the closed reason set
	Reason entity.MovementReason
	// ReferenceID optionally links to the originating document
	ReferenceID *id.ID
	// Actor is required attribution metadata
	Actor string
}

func (in MovementInput) validate() error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if id.IsNil(in.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if !entity.ValidReason(in.Reason) {
		return apperror.NewValidation("unknown movement reason").
			WithDetail("field", "reason").
			WithDetail("value", string(in.Reason))
	}
	if in.Actor == "" {
		return apperror.NewValidation("actor is required").WithDetail("field", "actor")
	}
	return nil
}

// GetQuantity returns the current quantity for a ledger key.
// A key with no record reads as zero (empty stock, not an error).
func (s *Service) GetQuantity(ctx context.Context, productID, locationID id.ID) (types.Quantity, error) {
	record, err := s.repo.GetRecord(ctx, productID, locationID)
	if err != nil {
		return 0, fmt.Errorf("get record: %w", err)
	}
	return record.Quantity, nil
}

// ApplyMovement atomically applies one quantity change: it reads the
// current quantity under a row lock, checks non-negativity, writes the
// record and appends the movement in the same transaction.
//
// When called inside an existing transaction (transfer signing), the
// mutation joins that transaction.
func (s *Service) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var movement entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.GetRecordForUpdate(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return fmt.Errorf("lock record: %w", err)
		}

		resulting := record.Quantity + in.Delta
		if resulting.IsNegative() {
			return apperror.NewInsufficientStock(
				in.ProductID.String(),
				in.LocationID.String(),
				in.Delta.Neg().Int64(),
				record.Quantity.Int64(),
			)
		}

		now := time.Now().UTC()
		record.ProductID = in.ProductID
		record.LocationID = in.LocationID
		record.Quantity = resulting
		record.LastMovementAt = now
		record.UpdatedAt = now

		if err := s.repo.UpsertRecord(ctx, record); err != nil {
			return fmt.Errorf("upsert record: %w", err)
		}

		movement = entity.NewStockMovement(
			in.ProductID, in.LocationID,
			in.Delta, resulting,
			in.Reason, in.ReferenceID, in.Actor,
		)
		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "applied stock movement",
		"product_id", in.ProductID,
		"location_id", in.LocationID,
		"delta", in.Delta.Int64(),
		"resulting", movement.Resulting.Int64(),
		"reason", in.Reason,
	)

	return &movement, nil
}

// ApplyAdjustment sets the quantity to newQuantity as an audited
// stocktake correction. A zero delta still writes a movement row so the
// confirmation shows up in the history.
func (s *Service) ApplyAdjustment(ctx context.Context, productID, locationID id.ID, newQuantity types.Quantity, actor string) (*entity.StockMovement, error) {
	if newQuantity.IsNegative() {
		return nil, apperror.NewValidation("quantity must not be negative").
			WithDetail("field", "newQuantity").
			WithDetail("value", newQuantity.Int64())
	}

	var movement *entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.GetRecordForUpdate(ctx, productID, locationID)
		if err != nil {
			return fmt.Errorf("lock record: %w", err)
		}

		delta := newQuantity - record.Quantity
		movement, err = s.ApplyMovement(ctx, MovementInput{
			ProductID:  productID,
			LocationID: locationID,
			Delta:      delta,
			Reason:     entity.ReasonAdjustment,
			Actor:      actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}

// ListMovements returns movement history ordered by timestamp ascending.
// Offset-based pagination keeps the listing restartable.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListMovements(ctx, filter)
}

// ListRecords returns current records matching the filter.
func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]entity.StockRecord, error) {
	return s.repo.ListRecords(ctx, filter)
}

// HasStockAt reports whether any ledger record references the location.
func (s *Service) HasStockAt(ctx context.Context, locationID id.ID) (bool, error) {
	return s.repo.HasRecordsForLocation(ctx, locationID)
}
