package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/transfers"
)

func TestExtractDBColumns_EmbeddedStructs(t *testing.T) {
	cols := ExtractDBColumns[transfers.Transfer]()

	// From BaseEntity and BaseDocument via entity.Document
	for _, expected := range []string{"id", "deletion_mark", "version", "created_at", "updated_at", "number", "date"} {
		assert.Contains(t, cols, expected)
	}

	// Transfer's own fields
	for _, expected := range []string{"from_location_id", "to_location_id", "assigned_user_id", "status", "signature"} {
		assert.Contains(t, cols, expected)
	}

	// Table parts are tagged db:"-" and must not leak into the column set
	assert.NotContains(t, cols, "lines")
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumns_MovementOrder(t *testing.T) {
	cols := ExtractDBColumns[entity.StockMovement]()

	// Declaration order is relied on by the insert builders.
	assert.Equal(t, []string{"line_id", "product_id", "location_id", "delta", "resulting", "reason", "reference_id", "actor", "created_at"}, cols)
}

func TestStructToMap_FlattensEmbedded(t *testing.T) {
	tr := transfers.NewTransfer(id.New(), id.New(), id.New())
	tr.Number = "TR-2026-00001"
	tr.Status = transfers.StatusPending

	m := StructToMap(tr)

	assert.Equal(t, tr.ID, m["id"])
	assert.Equal(t, tr.Version, m["version"])
	assert.Equal(t, "TR-2026-00001", m["number"])
	assert.Equal(t, transfers.StatusPending, m["status"])
	assert.Equal(t, tr.FromLocationID, m["from_location_id"])
	assert.NotContains(t, m, "lines")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("not a struct"))
}
