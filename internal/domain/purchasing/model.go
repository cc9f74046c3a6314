// Package purchasing provides the purchase order approval pipeline:
// Draft, PendingApproval, Approved/Rejected, Issued, with drafts kept
// as a separate autosave mechanism.
package purchasing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusIssued          Status = "ISSUED"
	StatusCancelled       Status = "CANCELLED"
)

// transitions is the status DAG. Rejected, Issued and Cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusIssued, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Decision is an approval verdict.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// PurchaseOrder represents a purchase order document.
type PurchaseOrder struct {
	entity.Document

	SupplierID  id.ID `db:"supplier_id" json:"supplierId"`
	CurrencyID  id.ID `db:"currency_id" json:"currencyId"`
	RequesterID id.ID `db:"requester_id" json:"requesterId"`

	Status Status `db:"status" json:"status"`

	// TotalAmount is always recomputed from lines, never trusted from input
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	ExpectedDelivery *time.Time `db:"expected_delivery" json:"expectedDelivery,omitempty"`
	Remarks          string     `db:"remarks" json:"remarks,omitempty"`
	Terms            string     `db:"terms" json:"terms,omitempty"`

	IssuedAt *time.Time `db:"issued_at" json:"issuedAt,omitempty"`

	// Table parts
	Lines     []Line     `db:"-" json:"lines"`
	Approvals []Approval `db:"-" json:"approvals"`
}

// Line represents one ordered product.
type Line struct {
	ID              id.ID          `db:"id" json:"id"`
	LineNo          int            `db:"line_no" json:"lineNo"`
	ProductID       id.ID          `db:"product_id" json:"productId"`
	QuantityOrdered types.Quantity `db:"quantity_ordered" json:"quantityOrdered"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	LineTotal       types.Money    `db:"line_total" json:"lineTotal"`
}

// Approval is one appended approval entry. Entries are immutable.
type Approval struct {
	ID         id.ID     `db:"id" json:"id"`
	POID       id.ID     `db:"po_id" json:"poId"`
	ApproverID id.ID     `db:"approver_id" json:"approverId"`
	Decision   Decision  `db:"decision" json:"decision"`
	Remarks    string    `db:"remarks" json:"remarks,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewPurchaseOrder creates a new purchase order.
// Creation submits immediately: drafts are a separate mechanism.
func NewPurchaseOrder(supplierID, currencyID, requesterID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:    entity.NewDocument(),
		SupplierID:  supplierID,
		CurrencyID:  currencyID,
		RequesterID: requesterID,
		Status:      StatusPendingApproval,
		TotalAmount: decimal.Zero,
		Lines:       make([]Line, 0),
		Approvals:   make([]Approval, 0),
	}
}

// AddLine appends a product line and recalculates the total.
func (p *PurchaseOrder) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	lineTotal := unitPrice.Mul(decimal.NewFromInt(quantity.Int64()))
	p.Lines = append(p.Lines, Line{
		ID:              id.New(),
		LineNo:          len(p.Lines) + 1,
		ProductID:       productID,
		QuantityOrdered: quantity,
		UnitPrice:       unitPrice,
		LineTotal:       lineTotal,
	})
	p.RecalculateTotal()
}

// RecalculateTotal recomputes line totals and the order total from the
// lines. Client-supplied totals are discarded.
func (p *PurchaseOrder) RecalculateTotal() {
	total := decimal.Zero
	for i := range p.Lines {
		p.Lines[i].LineTotal = p.Lines[i].UnitPrice.Mul(decimal.NewFromInt(p.Lines[i].QuantityOrdered.Int64()))
		total = total.Add(p.Lines[i].LineTotal)
	}
	p.TotalAmount = total
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if id.IsNil(p.CurrencyID) {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currencyId")
	}
	if id.IsNil(p.RequesterID) {
		return apperror.NewValidation("requester is required").
			WithDetail("field", "requesterId")
	}
	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range p.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.QuantityOrdered.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.UnitPrice.IsPositive() {
			return apperror.NewValidation("unit price must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// requireStatus guards state transitions.
func (p *PurchaseOrder) requireStatus(required Status) error {
	if p.Status != required {
		return apperror.NewInvalidState("purchase order", string(p.Status), string(required)).
			WithDetail("po_id", p.ID.String())
	}
	return nil
}

// MarkIssued records the terminal ISSUED state.
func (p *PurchaseOrder) MarkIssued() {
	now := time.Now().UTC()
	p.Status = StatusIssued
	p.IssuedAt = &now
	p.Touch()
}
