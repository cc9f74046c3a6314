package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	locations map[id.ID]*Location
	deleted   map[id.ID]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		locations: make(map[id.ID]*Location),
		deleted:   make(map[id.ID]bool),
	}
}

func (r *fakeRepo) Create(_ context.Context, loc *Location) error {
	r.locations[loc.ID] = loc
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, locationID id.ID) (*Location, error) {
	loc, ok := r.locations[locationID]
	if !ok || r.deleted[locationID] {
		return nil, apperror.NewNotFound("location", locationID.String())
	}
	return loc, nil
}

func (r *fakeRepo) Update(_ context.Context, loc *Location) error {
	r.locations[loc.ID] = loc
	return nil
}

func (r *fakeRepo) SetDeletionMark(_ context.Context, locationID id.ID, marked bool) error {
	r.deleted[locationID] = marked
	return nil
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter) ([]*Location, error) {
	var out []*Location
	for _, loc := range r.locations {
		if r.deleted[loc.ID] && !filter.IncludeDeleted {
			continue
		}
		if filter.Type != nil && loc.Type != *filter.Type {
			continue
		}
		out = append(out, loc)
	}
	return out, nil
}

func (r *fakeRepo) FirstChild(_ context.Context, parentID id.ID, childType LocationType) (*Location, error) {
	var first *Location
	for _, loc := range r.locations {
		if r.deleted[loc.ID] || loc.Type != childType {
			continue
		}
		if loc.ParentID == nil || *loc.ParentID != parentID {
			continue
		}
		if first == nil || loc.ID.String() < first.ID.String() {
			first = loc
		}
	}
	return first, nil
}

func (r *fakeRepo) FindMainStore(_ context.Context) (*Location, error) {
	for _, loc := range r.locations {
		if loc.Type == TypeMainStore && !r.deleted[loc.ID] {
			return loc, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) HasChildren(_ context.Context, locationID id.ID) (bool, error) {
	for _, loc := range r.locations {
		if r.deleted[loc.ID] {
			continue
		}
		if loc.ParentID != nil && *loc.ParentID == locationID {
			return true, nil
		}
	}
	return false, nil
}

type fakeStockChecker struct {
	withStock map[id.ID]bool
}

func (c fakeStockChecker) HasStockAt(_ context.Context, locationID id.ID) (bool, error) {
	return c.withStock[locationID], nil
}

func managerContext() context.Context {
	return security.WithActor(context.Background(), &security.Actor{
		ID:           id.New(),
		Name:         "manager",
		Capabilities: []security.Capability{security.CapManageLocations},
	})
}

func newTestService() (*Service, *fakeRepo, fakeStockChecker) {
	repo := newFakeRepo()
	stock := fakeStockChecker{withStock: make(map[id.ID]bool)}
	return NewService(repo, fakeTxManager{}, stock), repo, stock
}

func mustCreate(t *testing.T, svc *Service, loc *Location) *Location {
	t.Helper()
	require.NoError(t, svc.Create(managerContext(), loc))
	return loc
}

func TestCreate_RequiresCapability(t *testing.T) {
	svc, _, _ := newTestService()
	loc := NewLocation("Main", TypeMainStore)

	err := svc.Create(context.Background(), loc)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	noCaps := security.WithActor(context.Background(), &security.Actor{ID: id.New()})
	err = svc.Create(noCaps, loc)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCreate_SingleMainStore(t *testing.T) {
	svc, _, _ := newTestService()
	mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	err := svc.Create(managerContext(), NewLocation("Second main", TypeMainStore))
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestCreate_BranchAutoAttachesToMainStore(t *testing.T) {
	svc, _, _ := newTestService()
	main := mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	branch := NewLocation("North branch", TypeBranch)
	mustCreate(t, svc, branch)

	require.NotNil(t, branch.ParentID)
	assert.Equal(t, main.ID, *branch.ParentID)
}

func TestCreate_BranchWithoutMainStoreFails(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Create(managerContext(), NewLocation("Orphan branch", TypeBranch))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_InventoryPointRequiresParent(t *testing.T) {
	svc, _, _ := newTestService()
	mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	err := svc.Create(managerContext(), NewLocation("Shelf A", TypeInventoryPoint))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_ParentMustBeHigherTier(t *testing.T) {
	svc, _, _ := newTestService()
	mustCreate(t, svc, NewLocation("Main", TypeMainStore))
	branchA := mustCreate(t, svc, NewLocation("Branch A", TypeBranch))

	// A branch cannot parent another branch.
	branchB := NewLocation("Branch B", TypeBranch)
	branchB.ParentID = &branchA.ID
	err := svc.Create(managerContext(), branchB)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	// A branch can parent an inventory point.
	point := NewLocation("Shelf", TypeInventoryPoint)
	point.ParentID = &branchA.ID
	assert.NoError(t, svc.Create(managerContext(), point))
}

func TestCreate_MainStoreMustNotHaveParent(t *testing.T) {
	svc, _, _ := newTestService()
	branch := mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	second := NewLocation("Nested main", TypeMainStore)
	second.ParentID = &branch.ID
	err := svc.Create(managerContext(), second)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDelete_BlockedByChildren(t *testing.T) {
	svc, _, _ := newTestService()
	main := mustCreate(t, svc, NewLocation("Main", TypeMainStore))
	mustCreate(t, svc, NewLocation("Branch", TypeBranch))

	err := svc.Delete(managerContext(), main.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDelete_BlockedByStock(t *testing.T) {
	svc, _, stock := newTestService()
	mustCreate(t, svc, NewLocation("Main", TypeMainStore))
	branch := mustCreate(t, svc, NewLocation("Branch", TypeBranch))
	stock.withStock[branch.ID] = true

	err := svc.Delete(managerContext(), branch.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDelete_SoftDeletesLeaf(t *testing.T) {
	svc, repo, _ := newTestService()
	mustCreate(t, svc, NewLocation("Main", TypeMainStore))
	branch := mustCreate(t, svc, NewLocation("Branch", TypeBranch))

	require.NoError(t, svc.Delete(managerContext(), branch.ID))
	assert.True(t, repo.deleted[branch.ID])

	_, err := svc.GetByID(context.Background(), branch.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_ChangesNameAndAssignment(t *testing.T) {
	svc, _, _ := newTestService()
	main := mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	userID := id.New()
	updated, err := svc.Update(managerContext(), main.ID, "Central store", &userID)
	require.NoError(t, err)
	assert.Equal(t, "Central store", updated.Name)
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, userID, *updated.AssignedUserID)

	_, err = svc.Update(managerContext(), main.ID, "", nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestResolveDefaultTarget_DescendsToFinestTier(t *testing.T) {
	svc, _, _ := newTestService()
	main := mustCreate(t, svc, NewLocation("Main", TypeMainStore))

	// No children: resolves to itself.
	target, err := svc.ResolveDefaultTarget(context.Background(), main.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, target.ID)

	branch := mustCreate(t, svc, NewLocation("Branch", TypeBranch))
	target, err = svc.ResolveDefaultTarget(context.Background(), main.ID)
	require.NoError(t, err)
	assert.Equal(t, branch.ID, target.ID)

	point := NewLocation("Shelf", TypeInventoryPoint)
	point.ParentID = &branch.ID
	mustCreate(t, svc, point)

	target, err = svc.ResolveDefaultTarget(context.Background(), main.ID)
	require.NoError(t, err)
	assert.Equal(t, point.ID, target.ID)

	// Starting at the branch skips the main store tier.
	target, err = svc.ResolveDefaultTarget(context.Background(), branch.ID)
	require.NoError(t, err)
	assert.Equal(t, point.ID, target.ID)
}

func TestListByType_RejectsUnknownType(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListByType(context.Background(), LocationType("WAREHOUSE"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
