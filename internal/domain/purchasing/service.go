package purchasing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// Service implements the purchase order workflow and draft handling.
type Service struct {
	repo      Repository
	drafts    DraftRepository
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.AuditRecorder

	// manualDraftCap limits explicitly saved drafts per user. The
	// autosave slot is not counted against it.
	manualDraftCap int

	onIssued domain.Hook[*PurchaseOrder]
}

// NewService creates a purchasing service.
func NewService(
	repo Repository,
	drafts DraftRepository,
	num *numerator.Service,
	txManager tx.Manager,
	audit domain.AuditRecorder,
	manualDraftCap int,
) *Service {
	if audit == nil {
		audit = domain.NopAuditRecorder{}
	}
	return &Service{
		repo:           repo,
		drafts:         drafts,
		numerator:      num,
		txManager:      txManager,
		audit:          audit,
		manualDraftCap: manualDraftCap,
	}
}

// SetOnIssued registers a hook invoked after an order is committed as
// issued. Hook failures are logged, not propagated.
func (s *Service) SetOnIssued(hook domain.Hook[*PurchaseOrder]) {
	s.onIssued = hook
}

// CreateInput is the new purchase order request.
type CreateInput struct {
	SupplierID       id.ID
	CurrencyID       id.ID
	ExpectedDelivery *time.Time
	Remarks          string
	Terms            string
	Comment          string
	Lines            []LineInput
}

// LineInput is one requested line. Totals are computed server-side.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice string
}

// Create validates and submits a new purchase order. The order enters
// approval immediately with a freshly allocated number, and the
// requester's autosave draft is discarded.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	po := NewPurchaseOrder(in.SupplierID, in.CurrencyID, actor.ID)
	po.ExpectedDelivery = in.ExpectedDelivery
	po.Remarks = in.Remarks
	po.Terms = in.Terms
	po.Comment = in.Comment
	po.CreatedBy = actor.ID.String()
	po.UpdatedBy = actor.ID.String()

	for i, line := range in.Lines {
		price, err := types.NewMoneyFromString(line.UnitPrice)
		if err != nil {
			return nil, apperror.NewValidation("invalid unit price").
				WithDetail("lineNo", i+1).
				WithDetail("value", line.UnitPrice)
		}
		po.AddLine(line.ProductID, types.Quantity(line.Quantity), price)
	}

	if err := po.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("allocating order number: %w", err)
	}
	po.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, po); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, po.ID, po.Lines); err != nil {
			return err
		}
		return s.drafts.DeleteAuto(ctx, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, po, "create", map[string]any{
		"number": po.Number,
		"total":  po.TotalAmount.String(),
	})

	logger.Info(ctx, "purchase order created",
		"po_id", po.ID.String(),
		"number", po.Number,
		"supplier_id", po.SupplierID.String(),
		"total", po.TotalAmount.String(),
	)

	return po, nil
}

// Update replaces the mutable fields of an order still awaiting
// approval. Only the requester may modify their own order.
func (s *Service) Update(ctx context.Context, poID id.ID, in CreateInput) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := po.requireStatus(StatusPendingApproval); err != nil {
			return err
		}
		if po.RequesterID != actor.ID {
			return apperror.NewForbidden("Only the requester may modify this order")
		}

		po.SupplierID = in.SupplierID
		po.CurrencyID = in.CurrencyID
		po.ExpectedDelivery = in.ExpectedDelivery
		po.Remarks = in.Remarks
		po.Terms = in.Terms
		po.Comment = in.Comment
		po.UpdatedBy = actor.ID.String()

		po.Lines = po.Lines[:0]
		for i, line := range in.Lines {
			price, err := types.NewMoneyFromString(line.UnitPrice)
			if err != nil {
				return apperror.NewValidation("invalid unit price").
					WithDetail("lineNo", i+1).
					WithDetail("value", line.UnitPrice)
			}
			po.AddLine(line.ProductID, types.Quantity(line.Quantity), price)
		}

		if err := po.Validate(ctx); err != nil {
			return err
		}

		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		return s.repo.SaveLines(ctx, po.ID, po.Lines)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, po, "update", map[string]any{"total": po.TotalAmount.String()})
	return po, nil
}

// Approve records an approval and moves the order to APPROVED.
func (s *Service) Approve(ctx context.Context, poID id.ID, remarks string) (*PurchaseOrder, error) {
	return s.decide(ctx, poID, DecisionApproved, StatusApproved, remarks)
}

// Reject records a rejection and moves the order to the terminal
// REJECTED state.
func (s *Service) Reject(ctx context.Context, poID id.ID, remarks string) (*PurchaseOrder, error) {
	return s.decide(ctx, poID, DecisionRejected, StatusRejected, remarks)
}

// decide appends the approval entry and transitions the order in one
// transaction, so two concurrent reviewers cannot both decide.
func (s *Service) decide(ctx context.Context, poID id.ID, decision Decision, next Status, remarks string) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapApprovePO); err != nil {
		return nil, err
	}

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := po.requireStatus(StatusPendingApproval); err != nil {
			return err
		}

		approval := &Approval{
			ID:         id.New(),
			POID:       po.ID,
			ApproverID: actor.ID,
			Decision:   decision,
			Remarks:    remarks,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.repo.AddApproval(ctx, approval); err != nil {
			return err
		}
		po.Approvals = append(po.Approvals, *approval)

		po.Status = next
		po.UpdatedBy = actor.ID.String()
		po.Touch()
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	action := "approve"
	if decision == DecisionRejected {
		action = "reject"
	}
	s.recordAudit(ctx, po, action, map[string]any{"remarks": remarks})

	logger.Info(ctx, "purchase order decided",
		"po_id", po.ID.String(),
		"number", po.Number,
		"decision", string(decision),
	)

	return po, nil
}

// Issue sends an approved order to the supplier.
func (s *Service) Issue(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapIssuePO); err != nil {
		return nil, err
	}

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := po.requireStatus(StatusApproved); err != nil {
			return err
		}

		po.MarkIssued()
		po.UpdatedBy = actor.ID.String()
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, po, "issue", nil)

	if s.onIssued != nil {
		if hookErr := s.onIssued(ctx, po); hookErr != nil {
			logger.Warn(ctx, "issue hook failed",
				"po_id", po.ID.String(),
				"error", hookErr,
			)
		}
	}

	logger.Info(ctx, "purchase order issued",
		"po_id", po.ID.String(),
		"number", po.Number,
	)

	return po, nil
}

// Cancel withdraws an order that has not yet reached a terminal state.
// The requester may cancel their own order; approvers may cancel any.
func (s *Service) Cancel(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if !CanTransition(po.Status, StatusCancelled) {
			return apperror.NewInvalidState("purchase order", string(po.Status), "DRAFT, PENDING_APPROVAL or APPROVED").
				WithDetail("po_id", po.ID.String())
		}
		if po.RequesterID != actor.ID && !actor.Can(security.CapApprovePO) {
			return apperror.NewForbidden("Only the requester may cancel this order")
		}

		po.Status = StatusCancelled
		po.UpdatedBy = actor.ID.String()
		po.Touch()
		return s.repo.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, po, "cancel", nil)
	return po, nil
}

// GetByID loads an order with its lines and approval history.
// Requesters without the view-all capability see only their own.
func (s *Service) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.RequesterID != actor.ID && !actor.Can(security.CapViewAllPOs) {
		return nil, apperror.NewNotFound("purchase order", poID.String())
	}

	if po.Lines, err = s.repo.GetLines(ctx, po.ID); err != nil {
		return nil, err
	}
	if po.Approvals, err = s.repo.GetApprovals(ctx, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

// List returns purchase orders matching the filter. Without the
// view-all capability the result is scoped to the actor's own orders.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return domain.ListResult[*PurchaseOrder]{}, err
	}

	if !actor.Can(security.CapViewAllPOs) {
		ownID := actor.ID
		filter.RequesterID = &ownID
	}
	defaults := domain.DefaultListFilter()
	if filter.Limit <= 0 {
		filter.Limit = defaults.Limit
	}
	if filter.OrderBy == "" {
		filter.OrderBy = defaults.OrderBy
	}
	return s.repo.List(ctx, filter)
}

// SaveAutoDraft replaces the actor's single autosave slot.
func (s *Service) SaveAutoDraft(ctx context.Context, payload json.RawMessage) (*Draft, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	draft := NewDraft(actor.ID, DraftKindAuto, payload)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.drafts.DeleteAuto(ctx, actor.ID); err != nil {
			return err
		}
		return s.drafts.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveManualDraft stores an explicitly named draft, subject to the
// per-user cap.
func (s *Service) SaveManualDraft(ctx context.Context, payload json.RawMessage) (*Draft, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}

	draft := NewDraft(actor.ID, DraftKindManual, payload)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		count, err := s.drafts.CountManual(ctx, actor.ID)
		if err != nil {
			return err
		}
		if count >= s.manualDraftCap {
			return apperror.NewQuotaExceeded("manual drafts", s.manualDraftCap)
		}
		return s.drafts.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// ListDrafts returns the actor's drafts, autosave included.
func (s *Service) ListDrafts(ctx context.Context) ([]*Draft, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return nil, err
	}
	return s.drafts.ListByOwner(ctx, actor.ID)
}

// DeleteDraft removes one of the actor's drafts.
func (s *Service) DeleteDraft(ctx context.Context, draftID id.ID) error {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return err
	}

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return err
	}
	if draft.OwnerID != actor.ID {
		return apperror.NewNotFound("draft", draftID.String())
	}
	return s.drafts.Delete(ctx, draftID)
}

// DeleteAllDrafts clears every draft the actor owns.
func (s *Service) DeleteAllDrafts(ctx context.Context) error {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreatePO); err != nil {
		return err
	}
	return s.drafts.DeleteAllByOwner(ctx, actor.ID)
}

// recordAudit writes the audit entry best-effort.
func (s *Service) recordAudit(ctx context.Context, po *PurchaseOrder, action string, changes map[string]any) {
	if err := s.audit.Record(ctx, "purchase_order", po.ID, action, changes); err != nil {
		logger.Warn(ctx, "audit record failed",
			"po_id", po.ID.String(),
			"action", action,
			"error", err,
		)
	}
}
