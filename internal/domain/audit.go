package domain

import (
	"context"

	"stockyard/internal/core/id"
)

// AuditRecorder records workflow mutations to the audit trail.
// The postgres implementation compresses and stores entries; services
// treat recording as best-effort and never fail an operation over it.
type AuditRecorder interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// NopAuditRecorder discards audit entries. Used in tests.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return nil
}
