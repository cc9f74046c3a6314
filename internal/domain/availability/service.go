// Package availability derives read-only stock health signals from the
// ledger: point-of-sale availability lookups and replenishment alerts.
package availability

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
)

// AlertType classifies a stock health condition.
type AlertType string

const (
	AlertStockout  AlertType = "stockout"
	AlertLowStock  AlertType = "low_stock"
	AlertOverstock AlertType = "overstock"
)

// Alert is one detected condition for a product at a location.
type Alert struct {
	Type       AlertType      `json:"type"`
	ProductID  id.ID          `json:"productId"`
	LocationID id.ID          `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`
	Threshold  types.Quantity `json:"threshold"`
}

// StockLevels are the per-product replenishment bounds.
type StockLevels struct {
	ReorderLevel types.Quantity
	MaxLevel     types.Quantity
}

// ProductMetadata supplies replenishment bounds per product.
type ProductMetadata interface {
	GetStockLevels(ctx context.Context, productID id.ID) (StockLevels, error)
}

// Service computes availability and alerts. It never mutates stock.
type Service struct {
	ledger   *ledger.Service
	products ProductMetadata

	// defaultOverstock applies when a product has no max level set.
	defaultOverstock types.Quantity
}

// NewService creates an availability service.
func NewService(ledgerSvc *ledger.Service, products ProductMetadata, defaultOverstock types.Quantity) *Service {
	return &Service{
		ledger:           ledgerSvc,
		products:         products,
		defaultOverstock: defaultOverstock,
	}
}

// GetAvailable returns the current quantity of a product at a location.
// Products never recorded at the location read as zero.
func (s *Service) GetAvailable(ctx context.Context, productID, locationID id.ID) (types.Quantity, error) {
	return s.ledger.GetQuantity(ctx, productID, locationID)
}

// ComputeAlerts evaluates every stock record at the location against
// the product's replenishment bounds. Rules are independent: a record
// can trip more than one alert.
func (s *Service) ComputeAlerts(ctx context.Context, locationID id.ID) ([]Alert, error) {
	records, err := s.ledger.ListRecords(ctx, ledger.RecordFilter{LocationID: &locationID})
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0)
	for _, rec := range records {
		levels, err := s.products.GetStockLevels(ctx, rec.ProductID)
		if err != nil {
			logger.Warn(ctx, "stock levels lookup failed",
				"product_id", rec.ProductID.String(),
				"error", err,
			)
			levels = StockLevels{}
		}

		if rec.Quantity.IsZero() {
			alerts = append(alerts, Alert{
				Type:       AlertStockout,
				ProductID:  rec.ProductID,
				LocationID: rec.LocationID,
				Quantity:   rec.Quantity,
			})
		}

		if rec.Quantity.IsPositive() && levels.ReorderLevel.IsPositive() && rec.Quantity <= levels.ReorderLevel {
			alerts = append(alerts, Alert{
				Type:       AlertLowStock,
				ProductID:  rec.ProductID,
				LocationID: rec.LocationID,
				Quantity:   rec.Quantity,
				Threshold:  levels.ReorderLevel,
			})
		}

		maxLevel := levels.MaxLevel
		if !maxLevel.IsPositive() {
			maxLevel = s.defaultOverstock
		}
		if maxLevel.IsPositive() && rec.Quantity >= maxLevel {
			alerts = append(alerts, Alert{
				Type:       AlertOverstock,
				ProductID:  rec.ProductID,
				LocationID: rec.LocationID,
				Quantity:   rec.Quantity,
				Threshold:  maxLevel,
			})
		}
	}

	return alerts, nil
}
