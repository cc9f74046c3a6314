package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/purchasing"
	"stockyard/internal/infrastructure/storage/postgres"
)

const poDraftsTable = "po_drafts"

var draftColumns = postgres.ExtractDBColumns[purchasing.Draft]()

// DraftRepo implements purchasing.DraftRepository.
type DraftRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ purchasing.DraftRepository = (*DraftRepo)(nil)

// NewDraftRepo creates a new draft repository.
func NewDraftRepo(txManager *postgres.TxManager) *DraftRepo {
	return &DraftRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a draft.
func (r *DraftRepo) Create(ctx context.Context, draft *purchasing.Draft) error {
	q := r.builder.
		Insert(poDraftsTable).
		Columns("id", "owner_id", "kind", "payload", "created_at", "updated_at").
		Values(draft.ID, draft.OwnerID, draft.Kind, draft.Payload, draft.CreatedAt, draft.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}

	return nil
}

// GetByID retrieves a draft by ID.
func (r *DraftRepo) GetByID(ctx context.Context, draftID id.ID) (*purchasing.Draft, error) {
	q := r.builder.
		Select(draftColumns...).
		From(poDraftsTable).
		Where(squirrel.Eq{"id": draftID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	draft := &purchasing.Draft{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, draft, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("draft", draftID.String())
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	return draft, nil
}

// GetAuto returns the owner's autosave draft, or nil when absent.
func (r *DraftRepo) GetAuto(ctx context.Context, ownerID id.ID) (*purchasing.Draft, error) {
	q := r.builder.
		Select(draftColumns...).
		From(poDraftsTable).
		Where(squirrel.Eq{"owner_id": ownerID, "kind": purchasing.DraftKindAuto})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	draft := &purchasing.Draft{}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, draft, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auto draft: %w", err)
	}

	return draft, nil
}

// DeleteAuto removes the owner's autosave draft if present.
func (r *DraftRepo) DeleteAuto(ctx context.Context, ownerID id.ID) error {
	q := r.builder.
		Delete(poDraftsTable).
		Where(squirrel.Eq{"owner_id": ownerID, "kind": purchasing.DraftKindAuto})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete auto draft: %w", err)
	}

	return nil
}

// CountManual counts the owner's explicitly saved drafts.
func (r *DraftRepo) CountManual(ctx context.Context, ownerID id.ID) (int, error) {
	sql := `SELECT COUNT(*) FROM po_drafts WHERE owner_id = $1 AND kind = $2`

	var count int
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, ownerID, purchasing.DraftKindManual).Scan(&count); err != nil {
		return 0, fmt.Errorf("count manual drafts: %w", err)
	}

	return count, nil
}

// ListByOwner returns the owner's drafts, most recently updated first.
func (r *DraftRepo) ListByOwner(ctx context.Context, ownerID id.ID) ([]*purchasing.Draft, error) {
	q := r.builder.
		Select(draftColumns...).
		From(poDraftsTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("updated_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var drafts []*purchasing.Draft
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &drafts, sql, args...); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	return drafts, nil
}

// Delete removes one draft.
func (r *DraftRepo) Delete(ctx context.Context, draftID id.ID) error {
	q := r.builder.
		Delete(poDraftsTable).
		Where(squirrel.Eq{"id": draftID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("draft", draftID.String())
	}

	return nil
}

// DeleteAllByOwner removes every draft the owner has.
func (r *DraftRepo) DeleteAllByOwner(ctx context.Context, ownerID id.ID) error {
	q := r.builder.
		Delete(poDraftsTable).
		Where(squirrel.Eq{"owner_id": ownerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}

	return nil
}
