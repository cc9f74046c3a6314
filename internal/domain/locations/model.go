// Package locations provides the location hierarchy: the tree of
// physical and organizational storage points stock is tracked against.
package locations

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// LocationType defines the tier of a location in the hierarchy.
type LocationType string

const (
	TypeMainStore      LocationType = "MAIN_STORE"
	TypeBranch         LocationType = "BRANCH"
	TypeInventoryPoint LocationType = "INVENTORY_POINT"
)

// tier returns the depth of a location type in the hierarchy.
// A location's parent must be of a strictly higher tier (lower number).
func tier(t LocationType) int {
	switch t {
	case TypeMainStore:
		return 0
	case TypeBranch:
		return 1
	case TypeInventoryPoint:
		return 2
	}
	return -1
}

// ValidType reports whether t is a known location type.
func ValidType(t LocationType) bool {
	return tier(t) >= 0
}

// Location represents one node of the location tree.
type Location struct {
	entity.BaseDocument

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Type defines the hierarchy tier
	Type LocationType `db:"type" json:"type"`

	// ParentID references the parent location (nil for MAIN_STORE)
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`

	// AssignedUserID is the user responsible for this location
	AssignedUserID *id.ID `db:"assigned_user_id" json:"assignedUserId,omitempty"`
}

// NewLocation creates a new Location with required fields.
func NewLocation(name string, locType LocationType) *Location {
	return &Location{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		Type:         locType,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if l.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if !ValidType(l.Type) {
		return apperror.NewValidation("invalid location type").
			WithDetail("field", "type").
			WithDetail("value", string(l.Type))
	}

	if l.Type == TypeMainStore && l.ParentID != nil {
		return apperror.NewValidation("main store must not have a parent").
			WithDetail("field", "parentId")
	}

	return nil
}

// CanParent reports whether parent may be the parent of a location of
// type t: the parent's tier must be strictly higher in the hierarchy.
func CanParent(parent *Location, t LocationType) bool {
	if parent == nil {
		return t == TypeMainStore
	}
	return tier(parent.Type) < tier(t)
}
