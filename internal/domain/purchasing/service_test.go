package purchasing

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/internal/domain"
	"stockyard/pkg/numerator"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	orders    map[id.ID]*PurchaseOrder
	lines     map[id.ID][]Line
	approvals map[id.ID][]Approval

	listFilter ListFilter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:    make(map[id.ID]*PurchaseOrder),
		lines:     make(map[id.ID][]Line),
		approvals: make(map[id.ID][]Approval),
	}
}

func (r *fakeRepo) Create(_ context.Context, po *PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, ok := r.orders[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID.String())
	}
	cp := *po
	return &cp, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, poID)
}

func (r *fakeRepo) Update(_ context.Context, po *PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *fakeRepo) GetLines(_ context.Context, poID id.ID) ([]Line, error) {
	return r.lines[poID], nil
}

func (r *fakeRepo) SaveLines(_ context.Context, poID id.ID, lines []Line) error {
	r.lines[poID] = lines
	return nil
}

func (r *fakeRepo) AddApproval(_ context.Context, approval *Approval) error {
	r.approvals[approval.POID] = append(r.approvals[approval.POID], *approval)
	return nil
}

func (r *fakeRepo) GetApprovals(_ context.Context, poID id.ID) ([]Approval, error) {
	return r.approvals[poID], nil
}

func (r *fakeRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	r.listFilter = filter
	var out []*PurchaseOrder
	for _, po := range r.orders {
		if filter.RequesterID != nil && po.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, po)
	}
	return domain.ListResult[*PurchaseOrder]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeDraftRepo struct {
	drafts map[id.ID]*Draft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[id.ID]*Draft)}
}

func (r *fakeDraftRepo) Create(_ context.Context, draft *Draft) error {
	r.drafts[draft.ID] = draft
	return nil
}

func (r *fakeDraftRepo) GetByID(_ context.Context, draftID id.ID) (*Draft, error) {
	d, ok := r.drafts[draftID]
	if !ok {
		return nil, apperror.NewNotFound("draft", draftID.String())
	}
	return d, nil
}

func (r *fakeDraftRepo) GetAuto(_ context.Context, ownerID id.ID) (*Draft, error) {
	for _, d := range r.drafts {
		if d.OwnerID == ownerID && d.Kind == DraftKindAuto {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDraftRepo) DeleteAuto(_ context.Context, ownerID id.ID) error {
	for draftID, d := range r.drafts {
		if d.OwnerID == ownerID && d.Kind == DraftKindAuto {
			delete(r.drafts, draftID)
		}
	}
	return nil
}

func (r *fakeDraftRepo) CountManual(_ context.Context, ownerID id.ID) (int, error) {
	n := 0
	for _, d := range r.drafts {
		if d.OwnerID == ownerID && d.Kind == DraftKindManual {
			n++
		}
	}
	return n, nil
}

func (r *fakeDraftRepo) ListByOwner(_ context.Context, ownerID id.ID) ([]*Draft, error) {
	var out []*Draft
	for _, d := range r.drafts {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDraftRepo) Delete(_ context.Context, draftID id.ID) error {
	delete(r.drafts, draftID)
	return nil
}

func (r *fakeDraftRepo) DeleteAllByOwner(_ context.Context, ownerID id.ID) error {
	for draftID, d := range r.drafts {
		if d.OwnerID == ownerID {
			delete(r.drafts, draftID)
		}
	}
	return nil
}

type seqRow struct{ val int64 }

func (r seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct {
	mu  sync.Mutex
	val int64
}

func (q *seqQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.val++
	return seqRow{val: q.val}
}

type fixture struct {
	svc    *Service
	repo   *fakeRepo
	drafts *fakeDraftRepo
}

func newFixture(manualCap int) fixture {
	repo := newFakeRepo()
	drafts := newFakeDraftRepo()
	num := numerator.New(&seqQuerier{})
	return fixture{
		svc:    NewService(repo, drafts, num, fakeTxManager{}, nil, manualCap),
		repo:   repo,
		drafts: drafts,
	}
}

func actorContext(userID id.ID, caps ...security.Capability) context.Context {
	return security.WithActor(context.Background(), &security.Actor{
		ID:           userID,
		Name:         "test user",
		Capabilities: caps,
	})
}

func requesterContext(userID id.ID) context.Context {
	return actorContext(userID, security.CapCreatePO)
}

func validInput() CreateInput {
	return CreateInput{
		SupplierID: id.New(),
		CurrencyID: id.New(),
		Lines: []LineInput{
			{ProductID: id.New(), Quantity: 3, UnitPrice: "10.50"},
			{ProductID: id.New(), Quantity: 2, UnitPrice: "4.25"},
		},
	}
}

func TestCreate_SubmitsForApproval(t *testing.T) {
	f := newFixture(5)
	requester := id.New()

	po, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPendingApproval, po.Status)
	assert.Equal(t, requester, po.RequesterID)
	assert.NotEmpty(t, po.Number)
	// 3*10.50 + 2*4.25
	assert.Equal(t, "40", po.TotalAmount.String())
	assert.Contains(t, f.repo.orders, po.ID)
	assert.Len(t, f.repo.lines[po.ID], 2)
}

func TestCreate_DiscardsAutoDraft(t *testing.T) {
	f := newFixture(5)
	requester := id.New()
	ctx := requesterContext(requester)

	_, err := f.svc.SaveAutoDraft(ctx, json.RawMessage(`{"supplier":"x"}`))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	auto, err := f.drafts.GetAuto(ctx, requester)
	require.NoError(t, err)
	assert.Nil(t, auto)
}

func TestCreate_RejectsBadPriceAndEmptyLines(t *testing.T) {
	f := newFixture(5)
	ctx := requesterContext(id.New())

	in := validInput()
	in.Lines[0].UnitPrice = "ten dollars"
	_, err := f.svc.Create(ctx, in)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	in = validInput()
	in.Lines = nil
	_, err = f.svc.Create(ctx, in)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestUpdate_RequesterOnlyWhilePending(t *testing.T) {
	f := newFixture(5)
	requester := id.New()
	po, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)

	// Someone else holding the create capability still may not touch it.
	_, err = f.svc.Update(requesterContext(id.New()), po.ID, validInput())
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	in := validInput()
	in.Lines = []LineInput{{ProductID: id.New(), Quantity: 1, UnitPrice: "99.99"}}
	updated, err := f.svc.Update(requesterContext(requester), po.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "99.99", updated.TotalAmount.String())

	// Once approved the order is frozen.
	approver := actorContext(id.New(), security.CapApprovePO)
	_, err = f.svc.Approve(approver, po.ID, "ok")
	require.NoError(t, err)
	_, err = f.svc.Update(requesterContext(requester), po.ID, in)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestApprove_RecordsDecision(t *testing.T) {
	f := newFixture(5)
	po, err := f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	approverID := id.New()
	approved, err := f.svc.Approve(actorContext(approverID, security.CapApprovePO), po.ID, "looks fine")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	require.Len(t, f.repo.approvals[po.ID], 1)
	entry := f.repo.approvals[po.ID][0]
	assert.Equal(t, DecisionApproved, entry.Decision)
	assert.Equal(t, approverID, entry.ApproverID)
	assert.Equal(t, "looks fine", entry.Remarks)
}

func TestApprove_RequiresPendingApproval(t *testing.T) {
	f := newFixture(5)
	po, err := f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	approver := actorContext(id.New(), security.CapApprovePO)
	_, err = f.svc.Reject(approver, po.ID, "no budget")
	require.NoError(t, err)

	// A second decision on the same order must fail.
	_, err = f.svc.Approve(approver, po.ID, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestApprove_RequiresCapability(t *testing.T) {
	f := newFixture(5)
	po, err := f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	_, err = f.svc.Approve(requesterContext(id.New()), po.ID, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestIssue_OnlyFromApproved(t *testing.T) {
	f := newFixture(5)
	po, err := f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	issuer := actorContext(id.New(), security.CapIssuePO)
	_, err = f.svc.Issue(issuer, po.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	_, err = f.svc.Approve(actorContext(id.New(), security.CapApprovePO), po.ID, "")
	require.NoError(t, err)

	var hooked *PurchaseOrder
	f.svc.SetOnIssued(func(_ context.Context, po *PurchaseOrder) error {
		hooked = po
		return nil
	})

	issued, err := f.svc.Issue(issuer, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, issued.Status)
	assert.NotNil(t, issued.IssuedAt)
	require.NotNil(t, hooked)
	assert.Equal(t, issued.ID, hooked.ID)
}

func TestCancel_RequesterOrApprover(t *testing.T) {
	f := newFixture(5)
	requester := id.New()

	po, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)

	// A stranger with only the create capability may not cancel.
	_, err = f.svc.Cancel(requesterContext(id.New()), po.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	cancelled, err := f.svc.Cancel(requesterContext(requester), po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Terminal states cannot be cancelled again.
	_, err = f.svc.Cancel(requesterContext(requester), po.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestCancel_ApproverMayCancelForeignOrder(t *testing.T) {
	f := newFixture(5)
	po, err := f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	approver := actorContext(id.New(), security.CapCreatePO, security.CapApprovePO)
	cancelled, err := f.svc.Cancel(approver, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestGetByID_HidesForeignOrders(t *testing.T) {
	f := newFixture(5)
	requester := id.New()
	po, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)

	_, err = f.svc.GetByID(requesterContext(id.New()), po.ID)
	assert.True(t, apperror.IsNotFound(err))

	got, err := f.svc.GetByID(requesterContext(requester), po.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)

	// View-all capability lifts the scoping.
	auditor := actorContext(id.New(), security.CapCreatePO, security.CapViewAllPOs)
	_, err = f.svc.GetByID(auditor, po.ID)
	assert.NoError(t, err)
}

func TestList_ScopesToOwnOrders(t *testing.T) {
	f := newFixture(5)
	requester := id.New()
	_, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)
	_, err = f.svc.Create(requesterContext(id.New()), validInput())
	require.NoError(t, err)

	result, err := f.svc.List(requesterContext(requester), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)
	require.NotNil(t, f.repo.listFilter.RequesterID)
	assert.Equal(t, requester, *f.repo.listFilter.RequesterID)

	auditor := actorContext(id.New(), security.CapCreatePO, security.CapViewAllPOs)
	result, err = f.svc.List(auditor, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.Nil(t, f.repo.listFilter.RequesterID)
}

func TestList_DefaultsPreserveCallerFilter(t *testing.T) {
	f := newFixture(5)
	requester := id.New()
	_, err := f.svc.Create(requesterContext(requester), validInput())
	require.NoError(t, err)

	filter := ListFilter{}
	filter.Offset = 20
	filter.OrderBy = "number"
	filter.IncludeDeleted = true

	_, err = f.svc.List(requesterContext(requester), filter)
	require.NoError(t, err)

	// A zero limit gets the default; the rest of the filter stays.
	assert.Equal(t, 50, f.repo.listFilter.Limit)
	assert.Equal(t, 20, f.repo.listFilter.Offset)
	assert.Equal(t, "number", f.repo.listFilter.OrderBy)
	assert.True(t, f.repo.listFilter.IncludeDeleted)
}

func TestSaveAutoDraft_ReplacesSlot(t *testing.T) {
	f := newFixture(5)
	owner := id.New()
	ctx := requesterContext(owner)

	first, err := f.svc.SaveAutoDraft(ctx, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	second, err := f.svc.SaveAutoDraft(ctx, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	drafts, err := f.svc.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, second.ID, drafts[0].ID)
	assert.JSONEq(t, `{"v":2}`, string(drafts[0].Payload))
}

func TestSaveManualDraft_EnforcesCap(t *testing.T) {
	f := newFixture(2)
	ctx := requesterContext(id.New())

	for i := 0; i < 2; i++ {
		_, err := f.svc.SaveManualDraft(ctx, json.RawMessage(`{}`))
		require.NoError(t, err)
	}

	_, err := f.svc.SaveManualDraft(ctx, json.RawMessage(`{}`))
	assert.True(t, apperror.IsCode(err, apperror.CodeQuotaExceeded))

	// The autosave slot does not count against the cap.
	_, err = f.svc.SaveAutoDraft(ctx, json.RawMessage(`{}`))
	assert.NoError(t, err)
}

func TestDeleteDraft_OwnerScoped(t *testing.T) {
	f := newFixture(5)
	owner := id.New()
	draft, err := f.svc.SaveManualDraft(requesterContext(owner), json.RawMessage(`{}`))
	require.NoError(t, err)

	err = f.svc.DeleteDraft(requesterContext(id.New()), draft.ID)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, f.svc.DeleteDraft(requesterContext(owner), draft.ID))
	drafts, err := f.svc.ListDrafts(requesterContext(owner))
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestCanTransition_TerminalStatesFrozen(t *testing.T) {
	for _, terminal := range []Status{StatusRejected, StatusIssued, StatusCancelled} {
		for _, next := range []Status{StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusIssued, StatusCancelled} {
			assert.False(t, CanTransition(terminal, next), "from %s to %s", terminal, next)
		}
	}
	assert.True(t, CanTransition(StatusPendingApproval, StatusApproved))
	assert.True(t, CanTransition(StatusApproved, StatusIssued))
	assert.False(t, CanTransition(StatusPendingApproval, StatusIssued))
}
