// Package register_repo provides the PostgreSQL implementation of the
// stock ledger.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	stockRecordsTable   = "stock_records"
	stockMovementsTable = "stock_movements"
)

var recordColumns = postgres.ExtractDBColumns[entity.StockRecord]()
var movementColumns = postgres.ExtractDBColumns[entity.StockMovement]()

// StockRepo implements ledger.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) getRecord(ctx context.Context, productID, locationID id.ID, forUpdate bool) (entity.StockRecord, error) {
	q := r.builder.
		Select(recordColumns...).
		From(stockRecordsTable).
		Where(squirrel.Eq{"product_id": productID, "location_id": locationID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity.StockRecord{}, fmt.Errorf("build query: %w", err)
	}

	var record entity.StockRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			if !forUpdate {
				// No row yet means zero stock, not an error.
				return entity.StockRecord{
					ProductID:  productID,
					LocationID: locationID,
					Quantity:   0,
				}, nil
			}
			// FOR UPDATE locks nothing when the row is absent, so two
			// first movements into the same key would both read zero.
			// Materialize the row and lock it.
			if err := r.insertZeroRecord(ctx, productID, locationID); err != nil {
				return entity.StockRecord{}, err
			}
			if err := pgxscan.Get(ctx, querier, &record, sql, args...); err != nil {
				return entity.StockRecord{}, fmt.Errorf("get stock record: %w", err)
			}
			return record, nil
		}
		return entity.StockRecord{}, fmt.Errorf("get stock record: %w", err)
	}

	return record, nil
}

func (r *StockRepo) insertZeroRecord(ctx context.Context, productID, locationID id.ID) error {
	q := r.builder.
		Insert(stockRecordsTable).
		Columns("product_id", "location_id", "quantity").
		Values(productID, locationID, 0).
		Suffix("ON CONFLICT (product_id, location_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock record: %w", err)
	}

	return nil
}

// GetRecord returns the current record for product+location.
func (r *StockRepo) GetRecord(ctx context.Context, productID, locationID id.ID) (entity.StockRecord, error) {
	return r.getRecord(ctx, productID, locationID, false)
}

// GetRecordForUpdate returns the record with a row lock. A missing row
// cannot be locked; the caller's subsequent UpsertRecord relies on the
// primary key conflict clause instead.
func (r *StockRepo) GetRecordForUpdate(ctx context.Context, productID, locationID id.ID) (entity.StockRecord, error) {
	return r.getRecord(ctx, productID, locationID, true)
}

// UpsertRecord writes the record, creating it on first movement.
func (r *StockRepo) UpsertRecord(ctx context.Context, record entity.StockRecord) error {
	q := r.builder.
		Insert(stockRecordsTable).
		Columns("product_id", "location_id", "quantity", "last_movement_at", "updated_at").
		Values(record.ProductID, record.LocationID, record.Quantity, record.LastMovementAt, record.UpdatedAt).
		Suffix(`ON CONFLICT (product_id, location_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert stock record: %w", err)
	}

	return nil
}

// ListRecords returns records matching the filter.
func (r *StockRepo) ListRecords(ctx context.Context, filter ledger.RecordFilter) ([]entity.StockRecord, error) {
	q := r.builder.
		Select(recordColumns...).
		From(stockRecordsTable).
		OrderBy("product_id", "location_id")

	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []entity.StockRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}

	return records, nil
}

// HasRecordsForLocation reports whether any record references the
// location. Records stay at zero forever, so a zero-quantity row still
// counts.
func (r *StockRepo) HasRecordsForLocation(ctx context.Context, locationID id.ID) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM stock_records WHERE location_id = $1)`

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, locationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check stock records: %w", err)
	}

	return exists, nil
}

// CreateMovement appends one movement row.
func (r *StockRepo) CreateMovement(ctx context.Context, movement entity.StockMovement) error {
	q := r.builder.
		Insert(stockMovementsTable).
		Columns(movementColumns...).
		Values(
			movement.LineID, movement.ProductID, movement.LocationID,
			movement.Delta, movement.Resulting, movement.Reason,
			movement.ReferenceID, movement.Actor, movement.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// ListMovements returns movements ordered by creation time ascending.
func (r *StockRepo) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(movementColumns...).
		From(stockMovementsTable).
		OrderBy("created_at ASC", "line_id ASC")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}
