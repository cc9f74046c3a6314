package transfers

import (
	"context"
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// Repository defines persistence operations for transfer documents.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByID(ctx context.Context, transferID id.ID) (*Transfer, error)

	// GetForUpdate retrieves the transfer with a row lock so two
	// concurrent signers serialize on the status check.
	GetForUpdate(ctx context.Context, transferID id.ID) (*Transfer, error)

	// Update modifies the document (with optimistic locking).
	Update(ctx context.Context, t *Transfer) error

	GetLines(ctx context.Context, transferID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, transferID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error)

	// ListPendingForUser returns PENDING transfers assigned to the user.
	ListPendingForUser(ctx context.Context, userID id.ID) ([]*Transfer, error)
}

// ListFilter for filtering transfers.
type ListFilter struct {
	domain.ListFilter

	Status         *Status
	FromLocationID *id.ID
	ToLocationID   *id.ID
	AssignedUserID *id.ID
	DateFrom       *time.Time
	DateTo         *time.Time
}
