// Package security provides the actor model and capability checks.
// Every state-changing operation receives an Actor and is authorized
// against the actor's capability set, not against role names.
package security

import (
	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
)

// Capability is a fine-grained permission an actor may hold.
type Capability string

const (
	CapManageLocations Capability = "locations:manage"
	CapAdjustStock     Capability = "stock:adjust"
	CapCreateTransfer  Capability = "transfers:create"
	CapSignTransfer    Capability = "transfers:sign"
	CapCreatePO        Capability = "purchase_orders:create"
	CapApprovePO       Capability = "purchase_orders:approve"
	CapIssuePO         Capability = "purchase_orders:issue"
	CapViewAllPOs      Capability = "purchase_orders:view_all"
)

// Actor is an authenticated principal performing an operation.
// Capabilities are resolved at the authentication boundary (JWT claims);
// domain services only ever consult the resulting set.
type Actor struct {
	ID           id.ID
	Name         string
	Capabilities []Capability
}

// Can reports whether the actor holds the capability.
func (a *Actor) Can(c Capability) bool {
	if a == nil {
		return false
	}
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Require returns a Forbidden error unless the actor holds the capability.
func (a *Actor) Require(c Capability) error {
	if a == nil {
		return apperror.NewUnauthorized("Authentication required")
	}
	if !a.Can(c) {
		return apperror.NewForbidden("Missing required capability").
			WithDetail("capability", string(c))
	}
	return nil
}
