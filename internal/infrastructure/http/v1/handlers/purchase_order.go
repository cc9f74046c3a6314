package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/purchasing"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles purchase order workflow endpoints.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchasing.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(service *purchasing.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, po.ID.String())
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.GetByID(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// List handles GET /purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := purchasing.ListFilter{}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")

	if status := c.Query("status"); status != "" {
		st := purchasing.Status(status)
		filter.Status = &st
	}

	var ok bool
	if filter.SupplierID, ok = h.ParseIDQuery(c, "supplierId"); !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromPurchaseOrders(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Update handles PUT /purchase-orders/:id.
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.Update(c.Request.Context(), poID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Approve handles POST /purchase-orders/:id/approve.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject handles POST /purchase-orders/:id/reject.
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *PurchaseOrderHandler) decide(
	c *gin.Context,
	fn func(ctx context.Context, poID id.ID, remarks string) (*purchasing.PurchaseOrder, error),
) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	po, err := fn(c.Request.Context(), poID, req.Remarks)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Issue handles POST /purchase-orders/:id/issue.
func (h *PurchaseOrderHandler) Issue(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.Issue(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// Cancel handles POST /purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.Cancel(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// SaveAutoDraft handles PUT /po-drafts/auto.
func (h *PurchaseOrderHandler) SaveAutoDraft(c *gin.Context) {
	var req dto.SaveDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draft, err := h.service.SaveAutoDraft(c.Request.Context(), req.Payload)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDraft(draft))
}

// SaveDraft handles POST /po-drafts.
func (h *PurchaseOrderHandler) SaveDraft(c *gin.Context) {
	var req dto.SaveDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draft, err := h.service.SaveManualDraft(c.Request.Context(), req.Payload)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, draft.ID.String())
}

// ListDrafts handles GET /po-drafts.
func (h *PurchaseOrderHandler) ListDrafts(c *gin.Context) {
	drafts, err := h.service.ListDrafts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDrafts(drafts))
}

// DeleteDraft handles DELETE /po-drafts/:id.
func (h *PurchaseOrderHandler) DeleteDraft(c *gin.Context) {
	draftID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDraft(c.Request.Context(), draftID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteAllDrafts handles DELETE /po-drafts.
func (h *PurchaseOrderHandler) DeleteAllDrafts(c *gin.Context) {
	if err := h.service.DeleteAllDrafts(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
