package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
	"stockyard/internal/domain/purchasing"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
	poApprovalsTable        = "po_approvals"
)

var purchaseOrderColumns = postgres.ExtractDBColumns[purchasing.PurchaseOrder]()

// PurchaseOrderRepo implements purchasing.Repository.
type PurchaseOrderRepo struct {
	*baseDocumentRepo[*purchasing.PurchaseOrder]
}

var _ purchasing.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		baseDocumentRepo: newBaseDocumentRepo(
			txManager,
			purchaseOrdersTable,
			purchaseOrderColumns,
			func() *purchasing.PurchaseOrder { return &purchasing.PurchaseOrder{} },
		),
	}
}

// GetLines retrieves order lines ordered by line number.
func (r *PurchaseOrderRepo) GetLines(ctx context.Context, poID id.ID) ([]purchasing.Line, error) {
	q := r.Builder().
		Select("id", "line_no", "product_id", "quantity_ordered", "unit_price", "line_total").
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchasing.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the order's lines.
func (r *PurchaseOrderRepo) SaveLines(ctx context.Context, poID id.ID, lines []purchasing.Line) error {
	del := r.Builder().
		Delete(purchaseOrderLinesTable).
		Where(squirrel.Eq{"po_id": poID})

	var ins *squirrel.InsertBuilder
	if len(lines) > 0 {
		b := r.Builder().
			Insert(purchaseOrderLinesTable).
			Columns("id", "po_id", "line_no", "product_id", "quantity_ordered", "unit_price", "line_total")
		for _, line := range lines {
			b = b.Values(line.ID, poID, line.LineNo, line.ProductID, line.QuantityOrdered, line.UnitPrice, line.LineTotal)
		}
		ins = &b
	}

	if err := r.replaceLines(ctx, del, ins); err != nil {
		return fmt.Errorf("save order lines: %w", err)
	}
	return nil
}

// AddApproval appends one approval entry.
func (r *PurchaseOrderRepo) AddApproval(ctx context.Context, approval *purchasing.Approval) error {
	q := r.Builder().
		Insert(poApprovalsTable).
		Columns("id", "po_id", "approver_id", "decision", "remarks", "created_at").
		Values(approval.ID, approval.POID, approval.ApproverID, approval.Decision, approval.Remarks, approval.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}

	return nil
}

// GetApprovals retrieves the approval history, oldest first.
func (r *PurchaseOrderRepo) GetApprovals(ctx context.Context, poID id.ID) ([]purchasing.Approval, error) {
	q := r.Builder().
		Select("id", "po_id", "approver_id", "decision", "remarks", "created_at").
		From(poApprovalsTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var approvals []purchasing.Approval
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &approvals, sql, args...); err != nil {
		return nil, fmt.Errorf("get approvals: %w", err)
	}

	return approvals, nil
}

// List retrieves purchase orders matching the filter.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchasing.ListFilter) (domain.ListResult[*purchasing.PurchaseOrder], error) {
	result := domain.ListResult[*purchasing.PurchaseOrder]{
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
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.RequesterID != nil {
		q = q.Where(squirrel.Eq{"requester_id": *filter.RequesterID})
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
