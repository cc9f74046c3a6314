package purchasing

import (
	"context"
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// ListFilter narrows purchase order listings.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	SupplierID  *id.ID
	RequesterID *id.ID
	DateFrom    *time.Time
	DateTo      *time.Time
}

// Repository is the purchase order persistence contract.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetForUpdate locks the order row for the rest of the
	// transaction, serializing concurrent decisions on the same order.
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	Update(ctx context.Context, po *PurchaseOrder) error

	GetLines(ctx context.Context, poID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, poID id.ID, lines []Line) error

	AddApproval(ctx context.Context, approval *Approval) error
	GetApprovals(ctx context.Context, poID id.ID) ([]Approval, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}

// DraftRepository persists purchase order drafts.
type DraftRepository interface {
	Create(ctx context.Context, draft *Draft) error
	GetByID(ctx context.Context, draftID id.ID) (*Draft, error)

	// GetAuto returns the owner's autosave draft, or nil when absent.
	GetAuto(ctx context.Context, ownerID id.ID) (*Draft, error)

	// DeleteAuto removes the owner's autosave draft if present.
	DeleteAuto(ctx context.Context, ownerID id.ID) error

	CountManual(ctx context.Context, ownerID id.ID) (int, error)
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*Draft, error)
	Delete(ctx context.Context, draftID id.ID) error
	DeleteAllByOwner(ctx context.Context, ownerID id.ID) error
}
