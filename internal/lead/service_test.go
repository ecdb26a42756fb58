// AngelaMos | 2026
// service_test.go

package lead

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

func strPtr(s string) *string { return &s }

// memoryRepo mirrors the table constraints: unique email, assigned_to
// must name a known user, scoped reads hide other assignees' rows.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Lead
	users  map[int64]bool
}

func newMemoryRepo(userIDs ...int64) *memoryRepo {
	users := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}
	return &memoryRepo{rows: map[int64]Lead{}, users: users}
}

func inScope(l Lead, scope *int64) bool {
	return scope == nil || (l.AssignedTo != nil && *l.AssignedTo == *scope)
}

func (m *memoryRepo) check(l *Lead) error {
	if l.AssignedTo != nil && !m.users[*l.AssignedTo] {
		return core.ValidationError("assigned_to must reference an existing user")
	}
	if l.Email == nil {
		return nil
	}
	for id, other := range m.rows {
		if id != l.ID && other.Email != nil && *other.Email == *l.Email {
			return core.ErrDuplicateKey
		}
	}
	return nil
}

func (m *memoryRepo) Create(_ context.Context, l *Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(l); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	m.nextID++
	l.ID = m.nextID
	m.rows[l.ID] = *l
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64, scope *int64) (*Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.rows[id]
	if !ok || !inScope(l, scope) {
		return nil, fmt.Errorf("get lead: %w", core.ErrNotFound)
	}
	return &l, nil
}

func (m *memoryRepo) List(_ context.Context, scope *int64) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Lead{}
	for _, l := range m.rows {
		if inScope(l, scope) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, l *Lead, scope *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[l.ID]
	if !ok || !inScope(existing, scope) {
		return fmt.Errorf("update lead: %w", core.ErrNotFound)
	}
	if err := m.check(l); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	l.CreatedAt = existing.CreatedAt
	m.rows[l.ID] = *l
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return 0, fmt.Errorf("delete lead: %w", core.ErrNotFound)
	}
	delete(m.rows, id)
	return id, nil
}

func (m *memoryRepo) ListStatuses(context.Context) ([]Status, error) {
	return []Status{
		{StatusNew, "new"},
		{StatusContacted, "contacted"},
		{StatusConverted, "converted"},
		{StatusLost, "lost"},
	}, nil
}

type fakeActors map[string]rbac.Actor

func (f fakeActors) ActorByEmail(_ context.Context, email string) (rbac.Actor, error) {
	a, ok := f[email]
	if !ok {
		return rbac.Actor{}, fmt.Errorf("actor by email: %w", core.ErrNotFound)
	}
	return a, nil
}

var (
	admin      = rbac.Actor{UserID: 1, Email: "admin@x.io", Role: rbac.RoleAdmin}
	sales      = rbac.Actor{UserID: 7, Email: "sam@x.io", Role: rbac.RoleSales}
	otherSales = rbac.Actor{UserID: 8, Email: "pat@x.io", Role: rbac.RoleSales}
	unassigned = rbac.Actor{UserID: 9, Email: "new@x.io"}
)

func newTestService(repo Repository) *Service {
	return NewService(repo, fakeActors{
		admin.Email:      admin,
		sales.Email:      sales,
		otherSales.Email: otherSales,
		unassigned.Email: unassigned,
	})
}

func seed(t *testing.T, svc *Service, owners ...int64) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(owners))
	for i, assignee := range owners {
		id, err := svc.Create(context.Background(), admin, CreateLeadRequest{
			Name:       fmt.Sprintf("lead-%d", i),
			StatusID:   StatusNew,
			AssignedTo: &assignee,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func assignees(leads []Lead) []int64 {
	out := make([]int64, 0, len(leads))
	for _, l := range leads {
		out = append(out, *l.AssignedTo)
	}
	return out
}

func TestSalesListSeesOnlyAssignedLeads(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	seed(t, svc, 7, 8, 7, 1)

	leads, err := svc.List(ctx, sales, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7}, assignees(leads))

	leads, err = svc.List(ctx, sales, ListFilter{ActorEmail: admin.Email})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7}, assignees(leads))
}

func TestAdminListIsUnscopedAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	ids := seed(t, svc, 7, 8, 1)

	leads, err := svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, ids[2], leads[0].ID)
	assert.Equal(t, ids[0], leads[2].ID)
}

func TestAdminListByActorEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	seed(t, svc, 7, 8, 8, 1)

	leads, err := svc.List(ctx, admin, ListFilter{ActorEmail: "PAT@x.io"})
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 8}, assignees(leads))

	leads, err = svc.List(ctx, admin, ListFilter{ActorEmail: admin.Email})
	require.NoError(t, err)
	assert.Len(t, leads, 4)

	leads, err = svc.List(ctx, admin, ListFilter{ActorEmail: "ghost@x.io"})
	require.NoError(t, err)
	assert.Len(t, leads, 4)
}

func TestUnassignedIsDeniedEverything(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 9))
	ids := seed(t, svc, 9)
	self := unassigned.UserID

	_, err := svc.List(ctx, unassigned, ListFilter{})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Get(ctx, unassigned, ids[0])
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, unassigned, CreateLeadRequest{Name: "x", StatusID: StatusNew, AssignedTo: &self})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Update(ctx, unassigned, ids[0], UpdateLeadRequest{Name: "x", StatusID: StatusLost, AssignedTo: &self})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Delete(ctx, unassigned, ids[0])
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.ListStatuses(ctx, unassigned)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestSalesCreateMustAssignSelf(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	self, other := sales.UserID, otherSales.UserID

	id, err := svc.Create(ctx, sales, CreateLeadRequest{Name: "Mine", StatusID: StatusNew, AssignedTo: &self})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = svc.Create(ctx, sales, CreateLeadRequest{Name: "Theirs", StatusID: StatusNew, AssignedTo: &other})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestSalesEditOwnLeadOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	ids := seed(t, svc, 7, 8)
	self, other := sales.UserID, otherSales.UserID

	updated, err := svc.Update(ctx, sales, ids[0], UpdateLeadRequest{
		Name:       "Renamed",
		StatusID:   StatusContacted,
		AssignedTo: &self,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, updated.StatusID)

	_, err = svc.Update(ctx, sales, ids[1], UpdateLeadRequest{
		Name:       "Hijack",
		StatusID:   StatusLost,
		AssignedTo: &self,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, sales, ids[0], UpdateLeadRequest{
		Name:       "Handoff",
		StatusID:   StatusNew,
		AssignedTo: &other,
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Update(ctx, sales, ids[0], UpdateLeadRequest{Name: "Orphan", StatusID: StatusNew})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestSalesCannotReadOthersLead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	ids := seed(t, svc, 8)

	_, err := svc.Get(ctx, sales, ids[0])
	assert.ErrorIs(t, err, core.ErrNotFound)

	l, err := svc.Get(ctx, admin, ids[0])
	require.NoError(t, err)
	assert.Equal(t, otherSales.UserID, *l.AssignedTo)
}

func TestAdminReassignsAndDeletes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7, 8))
	ids := seed(t, svc, 7)
	other := otherSales.UserID

	l, err := svc.Update(ctx, admin, ids[0], UpdateLeadRequest{Name: "Moved", StatusID: StatusConverted, AssignedTo: &other})
	require.NoError(t, err)
	assert.Equal(t, other, *l.AssignedTo)

	_, err = svc.Update(ctx, admin, ids[0], UpdateLeadRequest{Name: "Unowned", StatusID: StatusConverted})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, sales, ids[0])
	assert.ErrorIs(t, err, core.ErrForbidden)

	deleted, err := svc.Delete(ctx, admin, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], deleted)

	_, err = svc.Delete(ctx, admin, ids[0])
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStatusMovesFreely(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1, 7))
	ids := seed(t, svc, 7)
	self := sales.UserID

	for _, status := range []int64{StatusLost, StatusNew, StatusConverted, StatusContacted} {
		l, err := svc.Update(ctx, sales, ids[0], UpdateLeadRequest{Name: "Cycle", StatusID: status, AssignedTo: &self})
		require.NoError(t, err)
		assert.Equal(t, status, l.StatusID)
	}
}

func TestCreateRejectsUnknownAssignee(t *testing.T) {
	ghost := int64(404)
	_, err := newTestService(newMemoryRepo(1)).Create(context.Background(), admin, CreateLeadRequest{
		Name:       "x",
		StatusID:   StatusNew,
		AssignedTo: &ghost,
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo(1))
	self := admin.UserID

	req := CreateLeadRequest{Name: "a", Email: strPtr("dup@x.io"), StatusID: StatusNew, AssignedTo: &self}
	_, err := svc.Create(ctx, admin, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, req)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	leads, err := svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}
