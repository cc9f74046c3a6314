package dto

import (
	"encoding/json"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/purchasing"
)

// --- Request DTOs ---

type CreatePurchaseOrderRequest struct {
	SupplierID       string                     `json:"supplierId" binding:"required"`
	CurrencyID       string                     `json:"currencyId" binding:"required"`
	ExpectedDelivery *time.Time                 `json:"expectedDelivery,omitempty"`
	Remarks          string                     `json:"remarks,omitempty"`
	Terms            string                     `json:"terms,omitempty"`
	Comment          string                     `json:"comment,omitempty"`
	Lines            []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PurchaseOrderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

func (r *CreatePurchaseOrderRequest) ToInput() (purchasing.CreateInput, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return purchasing.CreateInput{}, apperror.NewValidation("invalid supplier id").
			WithDetail("supplierId", r.SupplierID)
	}
	currencyID, err := id.Parse(r.CurrencyID)
	if err != nil {
		return purchasing.CreateInput{}, apperror.NewValidation("invalid currency id").
			WithDetail("currencyId", r.CurrencyID)
	}

	in := purchasing.CreateInput{
		SupplierID:       supplierID,
		CurrencyID:       currencyID,
		ExpectedDelivery: r.ExpectedDelivery,
		Remarks:          r.Remarks,
		Terms:            r.Terms,
		Comment:          r.Comment,
	}

	for i, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return purchasing.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("lineNo", i+1).
				WithDetail("productId", line.ProductID)
		}
		in.Lines = append(in.Lines, purchasing.LineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return in, nil
}

type DecideRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

type SaveDraftRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// --- Response DTOs ---

type PurchaseOrderResponse struct {
	ID               string                      `json:"id"`
	Number           string                      `json:"number"`
	Date             time.Time                   `json:"date"`
	SupplierID       string                      `json:"supplierId"`
	CurrencyID       string                      `json:"currencyId"`
	RequesterID      string                      `json:"requesterId"`
	Status           string                      `json:"status"`
	TotalAmount      string                      `json:"totalAmount"`
	ExpectedDelivery *time.Time                  `json:"expectedDelivery,omitempty"`
	Remarks          string                      `json:"remarks,omitempty"`
	Terms            string                      `json:"terms,omitempty"`
	Comment          string                      `json:"comment,omitempty"`
	IssuedAt         *time.Time                  `json:"issuedAt,omitempty"`
	Version          int                         `json:"version"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
	Lines            []PurchaseOrderLineResponse `json:"lines,omitempty"`
	Approvals        []ApprovalResponse          `json:"approvals,omitempty"`
}

type PurchaseOrderLineResponse struct {
	ID        string `json:"id"`
	LineNo    int    `json:"lineNo"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type ApprovalResponse struct {
	ID         string    `json:"id"`
	ApproverID string    `json:"approverId"`
	Decision   string    `json:"decision"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func FromPurchaseOrder(po *purchasing.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:               po.ID.String(),
		Number:           po.Number,
		Date:             po.Date,
		SupplierID:       po.SupplierID.String(),
		CurrencyID:       po.CurrencyID.String(),
		RequesterID:      po.RequesterID.String(),
		Status:           string(po.Status),
		TotalAmount:      po.TotalAmount.String(),
		ExpectedDelivery: po.ExpectedDelivery,
		Remarks:          po.Remarks,
		Terms:            po.Terms,
		Comment:          po.Comment,
		IssuedAt:         po.IssuedAt,
		Version:          po.Version,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
	}
	for _, line := range po.Lines {
		resp.Lines = append(resp.Lines, PurchaseOrderLineResponse{
			ID:        line.ID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.QuantityOrdered.Int64(),
			UnitPrice: line.UnitPrice.String(),
			LineTotal: line.LineTotal.String(),
		})
	}
	for _, appr := range po.Approvals {
		resp.Approvals = append(resp.Approvals, ApprovalResponse{
			ID:         appr.ID.String(),
			ApproverID: appr.ApproverID.String(),
			Decision:   string(appr.Decision),
			Remarks:    appr.Remarks,
			CreatedAt:  appr.CreatedAt,
		})
	}
	return resp
}

func FromPurchaseOrders(pos []*purchasing.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, 0, len(pos))
	for _, po := range pos {
		out = append(out, FromPurchaseOrder(po))
	}
	return out
}

type DraftResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func FromDraft(d *purchasing.Draft) DraftResponse {
	return DraftResponse{
		ID:        d.ID.String(),
		Kind:      string(d.Kind),
		Payload:   d.Payload,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func FromDrafts(drafts []*purchasing.Draft) []DraftResponse {
	out := make([]DraftResponse, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, FromDraft(d))
	}
	return out
}
