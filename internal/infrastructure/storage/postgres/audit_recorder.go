package postgres

import (
	"context"

	"stockyard/internal/core/id"
	"stockyard/internal/domain"
)

// AuditRecorder adapts AuditService to the domain audit contract.
type AuditRecorder struct {
	audit *AuditService
}

var _ domain.AuditRecorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates the adapter.
func NewAuditRecorder(audit *AuditService) *AuditRecorder {
	return &AuditRecorder{audit: audit}
}

// Record implements domain.AuditRecorder.
func (r *AuditRecorder) Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return r.audit.LogChange(ctx, entityType, entityID, AuditAction(action), changes)
}
