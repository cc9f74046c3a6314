package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/transfers"
)

// --- Request DTOs ---

type CreateTransferRequest struct {
	FromLocationID string                `json:"fromLocationId" binding:"required"`
	ToLocationID   string                `json:"toLocationId" binding:"required"`
	AssignedUserID string                `json:"assignedUserId" binding:"required"`
	Comment        string                `json:"comment,omitempty"`
	Lines          []TransferLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type TransferLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

func (r *CreateTransferRequest) ToEntity() (*transfers.Transfer, error) {
	fromID, err := id.Parse(r.FromLocationID)
	if err != nil {
		return nil, apperror.NewValidation("invalid source location id").
			WithDetail("fromLocationId", r.FromLocationID)
	}
	toID, err := id.Parse(r.ToLocationID)
	if err != nil {
		return nil, apperror.NewValidation("invalid target location id").
			WithDetail("toLocationId", r.ToLocationID)
	}
	assignedID, err := id.Parse(r.AssignedUserID)
	if err != nil {
		return nil, apperror.NewValidation("invalid assigned user id").
			WithDetail("assignedUserId", r.AssignedUserID)
	}

	t := transfers.NewTransfer(fromID, toID, assignedID)
	t.Comment = r.Comment

	for i, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("lineNo", i+1).
				WithDetail("productId", line.ProductID)
		}
		t.AddLine(productID, types.Quantity(line.Quantity))
	}

	return t, nil
}

type SignTransferRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// --- Response DTOs ---

type TransferResponse struct {
	ID             string                 `json:"id"`
	Number         string                 `json:"number"`
	Date           time.Time              `json:"date"`
	FromLocationID string                 `json:"fromLocationId"`
	ToLocationID   string                 `json:"toLocationId"`
	AssignedUserID string                 `json:"assignedUserId"`
	Status         string                 `json:"status"`
	Comment        string                 `json:"comment,omitempty"`
	SignedAt       *time.Time             `json:"signedAt,omitempty"`
	SignedBy       string                 `json:"signedBy,omitempty"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	Lines          []TransferLineResponse `json:"lines,omitempty"`
}

type TransferLineResponse struct {
	ID        string `json:"id"`
	LineNo    int    `json:"lineNo"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

func FromTransfer(t *transfers.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:             t.ID.String(),
		Number:         t.Number,
		Date:           t.Date,
		FromLocationID: t.FromLocationID.String(),
		ToLocationID:   t.ToLocationID.String(),
		AssignedUserID: t.AssignedUserID.String(),
		Status:         string(t.Status),
		Comment:        t.Comment,
		SignedAt:       t.SignedAt,
		SignedBy:       t.SignedBy,
		Version:        t.Version,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	for _, line := range t.Lines {
		resp.Lines = append(resp.Lines, TransferLineResponse{
			ID:        line.ID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity.Int64(),
		})
	}
	return resp
}

func FromTransfers(ts []*transfers.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromTransfer(t))
	}
	return out
}
