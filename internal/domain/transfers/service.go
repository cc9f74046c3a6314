package transfers

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

// Ledger is the slice of the stock ledger the transfer workflow needs.
type Ledger interface {
	GetQuantity(ctx context.Context, productID, locationID id.ID) (types.Quantity, error)
	ApplyMovement(ctx context.Context, in ledger.MovementInput) (*entity.StockMovement, error)
}

// Service orchestrates the transfer workflow.
type Service struct {
	repo      Repository
	ledger    Ledger
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.AuditRecorder

	// onSigned fires after the signing transaction commits
	// (downstream accounting sync, notifications).
	onSigned domain.Hook[*Transfer]
}

// NewService creates a new transfer service.
func NewService(
	repo Repository,
	ledgerSvc Ledger,
	numeratorSvc *numerator.Service,
	txManager tx.Manager,
	audit domain.AuditRecorder,
) *Service {
	if audit == nil {
		audit = domain.NopAuditRecorder{}
	}
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		numerator: numeratorSvc,
		txManager: txManager,
		audit:     audit,
	}
}

// SetOnSigned registers the post-commit signing hook.
func (s *Service) SetOnSigned(hook domain.Hook[*Transfer]) {
	s.onSigned = hook
}

// Create validates and persists a new PENDING transfer.
//
// The stock check here is a soft one for fast feedback: stock may change
// between creation and signing, so signing re-verifies authoritatively
// under row locks.
func (s *Service) Create(ctx context.Context, t *Transfer) error {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreateTransfer); err != nil {
		return err
	}

	if err := t.Validate(ctx); err != nil {
		return err
	}

	for i, line := range t.Lines {
		available, err := s.ledger.GetQuantity(ctx, line.ProductID, t.FromLocationID)
		if err != nil {
			return fmt.Errorf("check stock: %w", err)
		}
		if available < line.Quantity {
			return apperror.NewValidation("insufficient stock at source location").
				WithDetail("lineNo", i+1).
				WithDetail("product_id", line.ProductID.String()).
				WithDetail("requested", line.Quantity.Int64()).
				WithDetail("available", available.Int64())
		}
	}

	if t.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		t.Number = number
	}

	t.Status = StatusPending
	t.CreatedBy = actor.ID.String()
	t.UpdatedBy = t.CreatedBy

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		if err := s.repo.SaveLines(ctx, t.ID, t.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, t.ID, "create", map[string]any{
		"number": t.Number,
		"from":   t.FromLocationID.String(),
		"to":     t.ToLocationID.String(),
		"lines":  len(t.Lines),
	})

	logger.Info(ctx, "transfer created", "id", t.ID, "number", t.Number)
	return nil
}

// Sign applies the transfer to the ledger and marks it SIGNED.
//
// All legs plus the status update commit as one unit: the outer
// transaction here is joined by every ApplyMovement call, so a failed
// leg rolls everything back and the transfer stays PENDING. Re-signing
// a SIGNED transfer fails with InvalidState and moves no stock.
func (s *Service) Sign(ctx context.Context, transferID id.ID, signature string) (*Transfer, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapSignTransfer); err != nil {
		return nil, err
	}

	var t *Transfer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := t.requirePending(); err != nil {
			return err
		}
		if t.AssignedUserID != actor.ID {
			return apperror.NewForbidden("Transfer is assigned to another user").
				WithDetail("assigned_user_id", t.AssignedUserID.String())
		}

		lines, err := s.repo.GetLines(ctx, transferID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		t.Lines = lines

		signer := actor.ID.String()
		for _, line := range t.Lines {
			if _, err := s.ledger.ApplyMovement(ctx, ledger.MovementInput{
				ProductID:   line.ProductID,
				LocationID:  t.FromLocationID,
				Delta:       line.Quantity.Neg(),
				Reason:      entity.ReasonTransferOut,
				ReferenceID: &t.ID,
				Actor:       signer,
			}); err != nil {
				return err
			}
			if _, err := s.ledger.ApplyMovement(ctx, ledger.MovementInput{
				ProductID:   line.ProductID,
				LocationID:  t.ToLocationID,
				Delta:       line.Quantity,
				Reason:      entity.ReasonTransferIn,
				ReferenceID: &t.ID,
				Actor:       signer,
			}); err != nil {
				return err
			}
		}

		t.MarkSigned(signature, signer)
		t.UpdatedBy = signer
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, t.ID, "sign", map[string]any{
		"number": t.Number,
		"lines":  len(t.Lines),
	})

	if s.onSigned != nil {
		if hookErr := s.onSigned(ctx, t); hookErr != nil {
			logger.Warn(ctx, "on-signed hook failed", "transfer_id", t.ID, "error", hookErr)
		}
	}

	logger.Info(ctx, "transfer signed", "id", t.ID, "number", t.Number)
	return t, nil
}

// Cancel abandons a PENDING transfer without stock effect.
func (s *Service) Cancel(ctx context.Context, transferID id.ID) (*Transfer, error) {
	actor := security.GetActor(ctx)
	if err := actor.Require(security.CapCreateTransfer); err != nil {
		return nil, err
	}

	var t *Transfer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := t.requirePending(); err != nil {
			return err
		}

		t.MarkCancelled()
		t.UpdatedBy = actor.ID.String()
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, t.ID, "cancel", map[string]any{"number": t.Number})

	logger.Info(ctx, "transfer cancelled", "id", t.ID, "number", t.Number)
	return t, nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, transferID id.ID) (*Transfer, error) {
	t, err := s.repo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	t.Lines = lines

	return t, nil
}

// ListPendingForUser returns PENDING transfers assigned to the user.
func (s *Service) ListPendingForUser(ctx context.Context, userID id.ID) ([]*Transfer, error) {
	return s.repo.ListPendingForUser(ctx, userID)
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, transferID id.ID, action string, changes map[string]any) {
	if err := s.audit.Record(ctx, "Transfer", transferID, action, changes); err != nil {
		logger.Warn(ctx, "audit record failed", "transfer_id", transferID, "action", action, "error", err)
	}
}
