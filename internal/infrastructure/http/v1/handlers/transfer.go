package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/core/security"
	"stockyard/internal/domain/transfers"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles transfer workflow endpoints.
type TransferHandler struct {
	*BaseHandler
	service *transfers.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(service *transfers.Service) *TransferHandler {
	return &TransferHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID.String())
}

// Get handles GET /transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(t))
}

// List handles GET /transfers.
func (h *TransferHandler) List(c *gin.Context) {
	filter := transfers.ListFilter{}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")

	if status := c.Query("status"); status != "" {
		st := transfers.Status(status)
		filter.Status = &st
	}

	var ok bool
	if filter.FromLocationID, ok = h.ParseIDQuery(c, "fromLocationId"); !ok {
		return
	}
	if filter.ToLocationID, ok = h.ParseIDQuery(c, "toLocationId"); !ok {
		return
	}
	if filter.AssignedUserID, ok = h.ParseIDQuery(c, "assignedUserId"); !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromTransfers(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Inbox handles GET /inbox/transfers: the caller's pending transfers.
func (h *TransferHandler) Inbox(c *gin.Context) {
	actor := security.GetActor(c.Request.Context())
	if err := actor.Require(security.CapSignTransfer); err != nil {
		h.Error(c, err)
		return
	}

	ts, err := h.service.ListPendingForUser(c.Request.Context(), actor.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfers(ts))
}

// Sign handles POST /transfers/:id/sign.
func (h *TransferHandler) Sign(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SignTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Sign(c.Request.Context(), transferID, req.Signature)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(t))
}

// Cancel handles POST /transfers/:id/cancel.
func (h *TransferHandler) Cancel(c *gin.Context) {
	transferID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.Cancel(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(t))
}
