package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
	"stockyard/internal/domain/transfers"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	transfersTable     = "doc_transfers"
	transferLinesTable = "doc_transfer_lines"
)

var transferColumns = postgres.ExtractDBColumns[transfers.Transfer]()

// TransferRepo implements transfers.Repository.
type TransferRepo struct {
	*baseDocumentRepo[*transfers.Transfer]
}

var _ transfers.Repository = (*TransferRepo)(nil)

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		baseDocumentRepo: newBaseDocumentRepo(
			txManager,
			transfersTable,
			transferColumns,
			func() *transfers.Transfer { return &transfers.Transfer{} },
		),
	}
}

// GetLines retrieves transfer lines ordered by line number.
func (r *TransferRepo) GetLines(ctx context.Context, transferID id.ID) ([]transfers.Line, error) {
	q := r.Builder().
		Select("id", "line_no", "product_id", "quantity").
		From(transferLinesTable).
		Where(squirrel.Eq{"transfer_id": transferID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []transfers.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get transfer lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the transfer's lines.
func (r *TransferRepo) SaveLines(ctx context.Context, transferID id.ID, lines []transfers.Line) error {
	del := r.Builder().
		Delete(transferLinesTable).
		Where(squirrel.Eq{"transfer_id": transferID})

	var ins *squirrel.InsertBuilder
	if len(lines) > 0 {
		b := r.Builder().
			Insert(transferLinesTable).
			Columns("id", "transfer_id", "line_no", "product_id", "quantity")
		for _, line := range lines {
			b = b.Values(line.ID, transferID, line.LineNo, line.ProductID, line.Quantity)
		}
		ins = &b
	}

	if err := r.replaceLines(ctx, del, ins); err != nil {
		return fmt.Errorf("save transfer lines: %w", err)
	}
	return nil
}

// List retrieves transfers matching the filter.
func (r *TransferRepo) List(ctx context.Context, filter transfers.ListFilter) (domain.ListResult[*transfers.Transfer], error) {
	result := domain.ListResult[*transfers.Transfer]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromLocationID != nil {
		q = q.Where(squirrel.Eq{"from_location_id": *filter.FromLocationID})
	}
	if filter.ToLocationID != nil {
		q = q.Where(squirrel.Eq{"to_location_id": *filter.ToLocationID})
	}
	if filter.AssignedUserID != nil {
		q = q.Where(squirrel.Eq{"assigned_user_id": *filter.AssignedUserID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	items, total, err := listPage(ctx, r.baseDocumentRepo, q, filter.OrderBy, filter.Limit, filter.Offset)
	if err != nil {
		return result, err
	}

	result.Items = items
	result.TotalCount = total
	return result, nil
}

// ListPendingForUser returns PENDING transfers assigned to the user,
// oldest first.
func (r *TransferRepo) ListPendingForUser(ctx context.Context, userID id.ID) ([]*transfers.Transfer, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"assigned_user_id": userID,
			"status":           transfers.StatusPending,
			"deletion_mark":    false,
		}).
		OrderBy("date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*transfers.Transfer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list pending transfers: %w", err)
	}

	return items, nil
}
