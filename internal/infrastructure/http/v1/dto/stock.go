package dto

import (
	"time"

	"stockyard/internal/core/entity"
	"stockyard/internal/domain/availability"
)

// --- Request DTOs ---

type AdjustStockRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	LocationID  string `json:"locationId" binding:"required"`
	NewQuantity int64  `json:"newQuantity" binding:"min=0"`
}

// --- Response DTOs ---

type StockRecordResponse struct {
	ProductID      string    `json:"productId"`
	LocationID     string    `json:"locationId"`
	Quantity       int64     `json:"quantity"`
	LastMovementAt time.Time `json:"lastMovementAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func FromStockRecord(rec entity.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ProductID:      rec.ProductID.String(),
		LocationID:     rec.LocationID.String(),
		Quantity:       rec.Quantity.Int64(),
		LastMovementAt: rec.LastMovementAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func FromStockRecords(recs []entity.StockRecord) []StockRecordResponse {
	out := make([]StockRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromStockRecord(rec))
	}
	return out
}

type StockMovementResponse struct {
	LineID      string    `json:"lineId"`
	ProductID   string    `json:"productId"`
	LocationID  string    `json:"locationId"`
	Delta       int64     `json:"delta"`
	Resulting   int64     `json:"resulting"`
	Reason      string    `json:"reason"`
	ReferenceID *string   `json:"referenceId,omitempty"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromStockMovement(m entity.StockMovement) StockMovementResponse {
	resp := StockMovementResponse{
		LineID:     m.LineID.String(),
		ProductID:  m.ProductID.String(),
		LocationID: m.LocationID.String(),
		Delta:      m.Delta.Int64(),
		Resulting:  m.Resulting.Int64(),
		Reason:     string(m.Reason),
		Actor:      m.Actor,
		CreatedAt:  m.CreatedAt,
	}
	if m.ReferenceID != nil {
		s := m.ReferenceID.String()
		resp.ReferenceID = &s
	}
	return resp
}

func FromStockMovements(ms []entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromStockMovement(m))
	}
	return out
}

type AvailabilityResponse struct {
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`
	Available  int64  `json:"available"`
}

type AlertResponse struct {
	Type       string `json:"type"`
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`
	Quantity   int64  `json:"quantity"`
	Threshold  int64  `json:"threshold,omitempty"`
}

func FromAlerts(alerts []availability.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertResponse{
			Type:       string(a.Type),
			ProductID:  a.ProductID.String(),
			LocationID: a.LocationID.String(),
			Quantity:   a.Quantity.Int64(),
			Threshold:  a.Threshold.Int64(),
		})
	}
	return out
}
