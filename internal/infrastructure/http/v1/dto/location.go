package dto

import (
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/locations"
)

// --- Request DTOs ---

type CreateLocationRequest struct {
	Name           string  `json:"name" binding:"required"`
	Type           string  `json:"type" binding:"required"`
	ParentID       *string `json:"parentId,omitempty"`
	AssignedUserID *string `json:"assignedUserId,omitempty"`
}

func (r *CreateLocationRequest) ToEntity() (*locations.Location, error) {
	loc := locations.NewLocation(r.Name, locations.LocationType(r.Type))

	if r.ParentID != nil {
		parentID, err := id.Parse(*r.ParentID)
		if err != nil {
			return nil, apperror.NewValidation("invalid parent id").
				WithDetail("parentId", *r.ParentID)
		}
		loc.ParentID = &parentID
	}
	if r.AssignedUserID != nil {
		userID, err := id.Parse(*r.AssignedUserID)
		if err != nil {
			return nil, apperror.NewValidation("invalid assigned user id").
				WithDetail("assignedUserId", *r.AssignedUserID)
		}
		loc.AssignedUserID = &userID
	}

	return loc, nil
}

type UpdateLocationRequest struct {
	Name           string  `json:"name" binding:"required"`
	AssignedUserID *string `json:"assignedUserId,omitempty"`
}

// --- Response DTOs ---

type LocationResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	ParentID       *string   `json:"parentId,omitempty"`
	AssignedUserID *string   `json:"assignedUserId,omitempty"`
	DeletionMark   bool      `json:"deletionMark"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func FromLocation(loc *locations.Location) LocationResponse {
	resp := LocationResponse{
		ID:           loc.ID.String(),
		Name:         loc.Name,
		Type:         string(loc.Type),
		DeletionMark: loc.DeletionMark,
		Version:      loc.Version,
		CreatedAt:    loc.CreatedAt,
		UpdatedAt:    loc.UpdatedAt,
	}
	if loc.ParentID != nil {
		s := loc.ParentID.String()
		resp.ParentID = &s
	}
	if loc.AssignedUserID != nil {
		s := loc.AssignedUserID.String()
		resp.AssignedUserID = &s
	}
	return resp
}

func FromLocations(locs []*locations.Location) []LocationResponse {
	out := make([]LocationResponse, 0, len(locs))
	for _, loc := range locs {
		out = append(out, FromLocation(loc))
	}
	return out
}
