package purchasing

import (
	"encoding/json"
	"time"

	"stockyard/internal/core/id"
)

// DraftKind distinguishes the single autosave slot from explicitly
// saved drafts.
type DraftKind string

const (
	DraftKindAuto   DraftKind = "auto"
	DraftKindManual DraftKind = "manual"
)

// Draft is an in-progress purchase order form, stored as an opaque
// payload. Drafts are per-owner and never visible to other users.
type Draft struct {
	ID        id.ID           `db:"id" json:"id"`
	OwnerID   id.ID           `db:"owner_id" json:"ownerId"`
	Kind      DraftKind       `db:"kind" json:"kind"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewDraft creates a draft of the given kind.
func NewDraft(ownerID id.ID, kind DraftKind, payload json.RawMessage) *Draft {
	now := time.Now().UTC()
	return &Draft{
		ID:        id.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
