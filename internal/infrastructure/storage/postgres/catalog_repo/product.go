package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/availability"
	"stockyard/internal/infrastructure/storage/postgres"
)

// ProductRepo supplies product replenishment bounds.
type ProductRepo struct {
	txManager *postgres.TxManager
}

var _ availability.ProductMetadata = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

// GetStockLevels returns the reorder and max level for a product.
// Unknown products read as zero bounds so alert evaluation can fall
// back to defaults.
func (r *ProductRepo) GetStockLevels(ctx context.Context, productID id.ID) (availability.StockLevels, error) {
	sql := `SELECT reorder_level, max_level FROM products WHERE id = $1`

	var levels availability.StockLevels
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID).Scan(&levels.ReorderLevel, &levels.MaxLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return availability.StockLevels{}, nil
		}
		return availability.StockLevels{}, fmt.Errorf("get stock levels: %w", err)
	}

	return levels, nil
}
