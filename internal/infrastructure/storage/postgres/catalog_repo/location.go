// Package catalog_repo provides PostgreSQL implementations for the
// reference-data repositories (locations, products).
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/locations"
	"stockyard/internal/infrastructure/storage/postgres"
)

const locationsTable = "locations"

var locationColumns = postgres.ExtractDBColumns[locations.Location]()

// LocationRepo implements locations.Repository.
type LocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ locations.Repository = (*LocationRepo)(nil)

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new location.
func (r *LocationRepo) Create(ctx context.Context, loc *locations.Location) error {
	data := postgres.StructToMap(loc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in location")
	}

	q := r.builder.
		Insert(locationsTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("A main store already exists")
		}
		return fmt.Errorf("insert location: %w", err)
	}

	return nil
}

// GetByID retrieves a location by ID.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*locations.Location, error) {
	q := r.builder.
		Select(locationColumns...).
		From(locationsTable).
		Where(squirrel.Eq{"id": locationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	loc := &locations.Location{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", locationID.String())
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	return loc, nil
}

// Update modifies an existing location with optimistic locking.
func (r *LocationRepo) Update(ctx context.Context, loc *locations.Location) error {
	data := postgres.StructToMap(loc)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "created_by")
	delete(data, "updated_at")

	q := r.builder.
		Update(locationsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": loc.ID, "version": loc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("location", loc.ID.String())
	}

	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *LocationRepo) SetDeletionMark(ctx context.Context, locationID id.ID, marked bool) error {
	q := r.builder.
		Update(locationsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": locationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("location", locationID.String())
	}

	return nil
}

// List retrieves locations ordered by ID, which for UUIDv7 keys is
// creation order.
func (r *LocationRepo) List(ctx context.Context, filter locations.ListFilter) ([]*locations.Location, error) {
	q := r.builder.
		Select(locationColumns...).
		From(locationsTable).
		OrderBy("id ASC")

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.ParentID != nil {
		q = q.Where(squirrel.Eq{"parent_id": *filter.ParentID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var locs []*locations.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &locs, sql, args...); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	return locs, nil
}

// FirstChild returns the earliest-created live child of the given type.
func (r *LocationRepo) FirstChild(ctx context.Context, parentID id.ID, childType locations.LocationType) (*locations.Location, error) {
	q := r.builder.
		Select(locationColumns...).
		From(locationsTable).
		Where(squirrel.Eq{
			"parent_id":     parentID,
			"type":          childType,
			"deletion_mark": false,
		}).
		OrderBy("id ASC").
		Limit(1)

	return r.getOne(ctx, q)
}

// FindMainStore returns the live MAIN_STORE, or nil when none exists.
func (r *LocationRepo) FindMainStore(ctx context.Context) (*locations.Location, error) {
	q := r.builder.
		Select(locationColumns...).
		From(locationsTable).
		Where(squirrel.Eq{
			"type":          locations.TypeMainStore,
			"deletion_mark": false,
		}).
		Limit(1)

	return r.getOne(ctx, q)
}

// getOne runs a single-row query where absence is not an error.
func (r *LocationRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*locations.Location, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	loc := &locations.Location{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}

	return loc, nil
}

// HasChildren reports whether any live location references locationID
// as its parent.
func (r *LocationRepo) HasChildren(ctx context.Context, locationID id.ID) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM locations WHERE parent_id = $1 AND NOT deletion_mark)`

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, locationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check children: %w", err)
	}

	return exists, nil
}
