// Package transfers provides the inter-location stock transfer document:
// a signed, auditable two-location movement applied to the ledger
// exactly once, at signing.
package transfers

import (
	"context"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the transfer lifecycle state.
// PENDING is the only non-terminal state: a transfer is either signed
// (stock applied) or cancelled (no stock effect), never reopened.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSigned    Status = "SIGNED"
	StatusCancelled Status = "CANCELLED"
)

// Transfer represents an inter-location stock transfer document.
type Transfer struct {
	entity.Document

	// FromLocationID is the source of the movement
	FromLocationID id.ID `db:"from_location_id" json:"fromLocationId"`

	// ToLocationID is the destination
	ToLocationID id.ID `db:"to_location_id" json:"toLocationId"`

	// AssignedUserID is the user responsible for signing
	AssignedUserID id.ID `db:"assigned_user_id" json:"assignedUserId"`

	// Status of the workflow
	Status Status `db:"status" json:"status"`

	// Signature payload stored at signing
	Signature string `db:"signature" json:"signature,omitempty"`

	// SignedAt is when the transfer was signed
	SignedAt *time.Time `db:"signed_at" json:"signedAt,omitempty"`

	// SignedBy is the signing actor
	SignedBy string `db:"signed_by" json:"signedBy,omitempty"`

	// Table part: transferred goods
	Lines []Line `db:"-" json:"lines"`
}

// Line represents one transferred product.
type Line struct {
	ID        id.ID          `db:"id" json:"id"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// NewTransfer creates a new PENDING transfer.
func NewTransfer(fromLocationID, toLocationID, assignedUserID id.ID) *Transfer {
	return &Transfer{
		Document:       entity.NewDocument(),
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		AssignedUserID: assignedUserID,
		Status:         StatusPending,
		Lines:          make([]Line, 0),
	}
}

// AddLine appends a product line.
func (t *Transfer) AddLine(productID id.ID, quantity types.Quantity) {
	t.Lines = append(t.Lines, Line{
		ID:        id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.FromLocationID) {
		return apperror.NewValidation("source location is required").
			WithDetail("field", "fromLocationId")
	}
	if id.IsNil(t.ToLocationID) {
		return apperror.NewValidation("destination location is required").
			WithDetail("field", "toLocationId")
	}
	if t.FromLocationID == t.ToLocationID {
		return apperror.NewValidation("source and destination must differ").
			WithDetail("field", "toLocationId")
	}
	if id.IsNil(t.AssignedUserID) {
		return apperror.NewValidation("assigned user is required").
			WithDetail("field", "assignedUserId")
	}
	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range t.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// IsTerminal reports whether the transfer reached a terminal state.
func (t *Transfer) IsTerminal() bool {
	return t.Status == StatusSigned || t.Status == StatusCancelled
}

// requirePending guards the one-shot transitions out of PENDING.
func (t *Transfer) requirePending() error {
	if t.Status != StatusPending {
		return apperror.NewInvalidState("transfer", string(t.Status), string(StatusPending)).
			WithDetail("transfer_id", t.ID.String())
	}
	return nil
}

// MarkSigned records the terminal SIGNED state with signature metadata.
func (t *Transfer) MarkSigned(signature, signedBy string) {
	now := time.Now().UTC()
	t.Status = StatusSigned
	t.Signature = signature
	t.SignedAt = &now
	t.SignedBy = signedBy
	t.Touch()
}

// MarkCancelled records the terminal CANCELLED state.
func (t *Transfer) MarkCancelled() {
	t.Status = StatusCancelled
	t.Touch()
}
