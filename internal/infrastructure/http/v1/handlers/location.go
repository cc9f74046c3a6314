package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/locations"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// LocationHandler handles location endpoints.
type LocationHandler struct {
	*BaseHandler
	service *locations.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(service *locations.Service) *LocationHandler {
	return &LocationHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /locations.
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, loc.ID.String())
}

// Get handles GET /locations/:id.
func (h *LocationHandler) Get(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(loc))
}

// List handles GET /locations.
func (h *LocationHandler) List(c *gin.Context) {
	var (
		locs []*locations.Location
		err  error
	)

	if typeParam := c.Query("type"); typeParam != "" {
		locs, err = h.service.ListByType(c.Request.Context(), locations.LocationType(typeParam))
	} else {
		locs, err = h.service.ListAll(c.Request.Context())
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocations(locs))
}

// Update handles PUT /locations/:id.
func (h *LocationHandler) Update(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var assignedUserID *id.ID
	if req.AssignedUserID != nil {
		parsed, err := id.Parse(*req.AssignedUserID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid assigned user id").
				WithDetail("assignedUserId", *req.AssignedUserID))
			return
		}
		assignedUserID = &parsed
	}

	loc, err := h.service.Update(c.Request.Context(), locationID, req.Name, assignedUserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(loc))
}

// Delete handles DELETE /locations/:id.
func (h *LocationHandler) Delete(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), locationID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// DefaultTarget handles GET /locations/:id/default-target.
func (h *LocationHandler) DefaultTarget(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.ResolveDefaultTarget(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(loc))
}
