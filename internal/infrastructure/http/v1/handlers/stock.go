package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/availability"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock ledger and availability endpoints.
type StockHandler struct {
	*BaseHandler
	ledger       *ledger.Service
	availability *availability.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(ledgerSvc *ledger.Service, availabilitySvc *availability.Service) *StockHandler {
	return &StockHandler{
		BaseHandler:  NewBaseHandler(),
		ledger:       ledgerSvc,
		availability: availabilitySvc,
	}
}

// ListRecords handles GET /stock.
func (h *StockHandler) ListRecords(c *gin.Context) {
	locationID, ok := h.ParseIDQuery(c, "locationId")
	if !ok {
		return
	}

	records, err := h.ledger.ListRecords(c.Request.Context(), ledger.RecordFilter{
		LocationID: locationID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockRecords(records))
}

// Adjust handles POST /stock/adjust. The ledger records the signed
// difference against the current quantity.
func (h *StockHandler) Adjust(c *gin.Context) {
	actor := security.GetActor(c.Request.Context())
	if err := actor.Require(security.CapAdjustStock); err != nil {
		h.Error(c, err)
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("productId", req.ProductID))
		return
	}
	locationID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id").WithDetail("locationId", req.LocationID))
		return
	}

	movement, err := h.ledger.ApplyAdjustment(
		c.Request.Context(),
		productID, locationID,
		types.Quantity(req.NewQuantity),
		actor.ID.String(),
	)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockMovement(*movement))
}

// ListMovements handles GET /stock/movements.
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}
	locationID, ok := h.ParseIDQuery(c, "locationId")
	if !ok {
		return
	}

	filter := ledger.MovementFilter{
		ProductID:  productID,
		LocationID: locationID,
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date").WithDetail("from", from))
			return
		}
		filter.FromDate = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date").WithDetail("to", to))
			return
		}
		filter.ToDate = &t
	}

	movements, err := h.ledger.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockMovements(movements))
}

// Available handles GET /stock/available.
func (h *StockHandler) Available(c *gin.Context) {
	productID, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("productId", c.Query("productId")))
		return
	}
	locationID, err := id.Parse(c.Query("locationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id").WithDetail("locationId", c.Query("locationId")))
		return
	}

	qty, err := h.availability.GetAvailable(c.Request.Context(), productID, locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ProductID:  productID.String(),
		LocationID: locationID.String(),
		Available:  qty.Int64(),
	})
}

// Alerts handles GET /stock/alerts.
func (h *StockHandler) Alerts(c *gin.Context) {
	locationID, err := id.Parse(c.Query("locationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id").WithDetail("locationId", c.Query("locationId")))
		return
	}

	alerts, err := h.availability.ComputeAlerts(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAlerts(alerts))
}
