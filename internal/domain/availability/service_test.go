package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stockKey struct {
	product  id.ID
	location id.ID
}

type memLedgerRepo struct {
	records map[stockKey]entity.StockRecord
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{records: make(map[stockKey]entity.StockRecord)}
}

func (r *memLedgerRepo) set(productID, locationID id.ID, qty int64) {
	r.records[stockKey{productID, locationID}] = entity.StockRecord{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   types.Quantity(qty),
	}
}

func (r *memLedgerRepo) GetRecord(_ context.Context, productID, locationID id.ID) (entity.StockRecord, error) {
	if rec, ok := r.records[stockKey{productID, locationID}]; ok {
		return rec, nil
	}
	return entity.StockRecord{ProductID: productID, LocationID: locationID}, nil
}

func (r *memLedgerRepo) GetRecordForUpdate(ctx context.Context, productID, locationID id.ID) (entity.StockRecord, error) {
	return r.GetRecord(ctx, productID, locationID)
}

func (r *memLedgerRepo) UpsertRecord(_ context.Context, record entity.StockRecord) error {
	r.records[stockKey{record.ProductID, record.LocationID}] = record
	return nil
}

func (r *memLedgerRepo) ListRecords(_ context.Context, filter ledger.RecordFilter) ([]entity.StockRecord, error) {
	var out []entity.StockRecord
	for _, rec := range r.records {
		if filter.LocationID != nil && rec.LocationID != *filter.LocationID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memLedgerRepo) HasRecordsForLocation(_ context.Context, locationID id.ID) (bool, error) {
	for key := range r.records {
		if key.location == locationID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLedgerRepo) CreateMovement(_ context.Context, _ entity.StockMovement) error {
	return nil
}

func (r *memLedgerRepo) ListMovements(_ context.Context, _ ledger.MovementFilter) ([]entity.StockMovement, error) {
	return nil, nil
}

type fakeProducts struct {
	levels map[id.ID]StockLevels
	failed map[id.ID]bool
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		levels: make(map[id.ID]StockLevels),
		failed: make(map[id.ID]bool),
	}
}

func (p *fakeProducts) GetStockLevels(_ context.Context, productID id.ID) (StockLevels, error) {
	if p.failed[productID] {
		return StockLevels{}, errors.New("catalog unavailable")
	}
	return p.levels[productID], nil
}

func newTestService(defaultOverstock int64) (*Service, *memLedgerRepo, *fakeProducts) {
	repo := newMemLedgerRepo()
	products := newFakeProducts()
	ledgerSvc := ledger.NewService(repo, fakeTxManager{})
	return NewService(ledgerSvc, products, types.Quantity(defaultOverstock)), repo, products
}

func alertTypes(alerts []Alert) []AlertType {
	out := make([]AlertType, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestGetAvailable_UnknownProductReadsZero(t *testing.T) {
	svc, _, _ := newTestService(0)

	qty, err := svc.GetAvailable(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty.Int64())
}

func TestComputeAlerts_Stockout(t *testing.T) {
	svc, repo, _ := newTestService(0)
	location := id.New()
	product := id.New()
	repo.set(product, location, 0)

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStockout, alerts[0].Type)
	assert.Equal(t, product, alerts[0].ProductID)
}

func TestComputeAlerts_LowStockBoundary(t *testing.T) {
	svc, repo, products := newTestService(0)
	location := id.New()

	atLevel := id.New()
	repo.set(atLevel, location, 5)
	products.levels[atLevel] = StockLevels{ReorderLevel: 5}

	above := id.New()
	repo.set(above, location, 6)
	products.levels[above] = StockLevels{ReorderLevel: 5}

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowStock, alerts[0].Type)
	assert.Equal(t, atLevel, alerts[0].ProductID)
	assert.Equal(t, int64(5), alerts[0].Threshold.Int64())
}

func TestComputeAlerts_NoReorderLevelNoAlert(t *testing.T) {
	svc, repo, _ := newTestService(0)
	location := id.New()
	repo.set(id.New(), location, 1)

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestComputeAlerts_OverstockPerProductLevel(t *testing.T) {
	svc, repo, products := newTestService(0)
	location := id.New()
	product := id.New()
	repo.set(product, location, 100)
	products.levels[product] = StockLevels{MaxLevel: 100}

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertOverstock, alerts[0].Type)
	assert.Equal(t, int64(100), alerts[0].Threshold.Int64())
}

func TestComputeAlerts_OverstockDefaultThreshold(t *testing.T) {
	svc, repo, _ := newTestService(50)
	location := id.New()
	over := id.New()
	under := id.New()
	repo.set(over, location, 50)
	repo.set(under, location, 49)

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertOverstock, alerts[0].Type)
	assert.Equal(t, over, alerts[0].ProductID)
	assert.Equal(t, int64(50), alerts[0].Threshold.Int64())
}

func TestComputeAlerts_RulesAreIndependent(t *testing.T) {
	svc, repo, products := newTestService(0)
	location := id.New()
	product := id.New()
	// At the reorder level and at the max level at once.
	repo.set(product, location, 10)
	products.levels[product] = StockLevels{ReorderLevel: 10, MaxLevel: 10}

	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	assert.ElementsMatch(t, []AlertType{AlertLowStock, AlertOverstock}, alertTypes(alerts))
}

func TestComputeAlerts_MetadataFailureFallsBackToZeroLevels(t *testing.T) {
	svc, repo, products := newTestService(0)
	location := id.New()
	product := id.New()
	repo.set(product, location, 3)
	products.failed[product] = true

	// Lookup failure degrades to no thresholds; the scan still completes.
	alerts, err := svc.ComputeAlerts(context.Background(), location)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestComputeAlerts_ScopedToLocation(t *testing.T) {
	svc, repo, _ := newTestService(0)
	here := id.New()
	elsewhere := id.New()
	repo.set(id.New(), here, 0)
	repo.set(id.New(), elsewhere, 0)

	alerts, err := svc.ComputeAlerts(context.Background(), here)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, here, alerts[0].LocationID)
}
