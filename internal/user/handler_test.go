// AngelaMos | 2026
// handler_test.go

package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newRouter(repo *memoryRepo, actor rbac.Actor) http.Handler {
	authenticated := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(rbac.WithActor(r.Context(), actor)))
		})
	}
	passthrough := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	h := NewHandler(NewService(repo, nil, ""))
	h.RegisterRoutes(r, authenticated)
	h.RegisterAdminRoutes(r, authenticated, passthrough)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHandlerPermissions(t *testing.T) {
	repo := newMemoryRepo()
	seedUsers(repo)

	_, env := do(t, newRouter(repo, unassigned), http.MethodGet, "/me/permissions", "")
	var perms rbac.Permissions
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.True(t, perms.SetupRequired)
	assert.False(t, perms.CanCreateLeads)
	assert.Nil(t, perms.RoleID)

	_, env = do(t, newRouter(repo, sales), http.MethodGet, "/me/permissions", "")
	require.NoError(t, json.Unmarshal(env.Data, &perms))
	assert.False(t, perms.SetupRequired)
	assert.True(t, perms.CanCreateLeads)
	assert.False(t, perms.CanManageUsers)
}

func TestHandlerGetMe(t *testing.T) {
	repo := newMemoryRepo()
	seedUsers(repo)

	rec, env := do(t, newRouter(repo, sales), http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "sales@x.io", me.Email)
	assert.Equal(t, "sales", me.Role)
}

func TestHandlerUpdateRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    rbac.Actor
		path     string
		body     string
		wantCode int
	}{
		{"promote", admin, "/admin/users/3/role", `{"role_id":1}`, http.StatusOK},
		{"clear", admin, "/admin/users/2/role", `{"role_id":null}`, http.StatusOK},
		{"bad role id", admin, "/admin/users/3/role", `{"role_id":5}`, http.StatusBadRequest},
		{"bad user id", admin, "/admin/users/abc/role", `{"role_id":1}`, http.StatusBadRequest},
		{"missing user", admin, "/admin/users/40/role", `{"role_id":1}`, http.StatusNotFound},
		{"self", admin, "/admin/users/1/role", `{"role_id":2}`, http.StatusForbidden},
		{"sales", sales, "/admin/users/3/role", `{"role_id":2}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			seedUsers(repo)

			rec, env := do(t, newRouter(repo, tt.actor), http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode == http.StatusOK, env.Success)
		})
	}
}

func TestHandlerListUsersPaginated(t *testing.T) {
	repo := newMemoryRepo()
	seedUsers(repo)

	rec := httptest.NewRecorder()
	newRouter(repo, admin).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/admin/users?page_size=500", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []UserResponse `json:"data"`
		Meta struct {
			PageSize int `json:"page_size"`
			Total    int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100, body.Meta.PageSize)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Len(t, body.Data, 3)
}

func TestHandlerListStaff(t *testing.T) {
	repo := newMemoryRepo()
	seedUsers(repo)

	rec, env := do(t, newRouter(repo, unassigned), http.MethodGet, "/staff", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, env = do(t, newRouter(repo, sales), http.MethodGet, "/staff", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var staff []StaffResponse
	require.NoError(t, json.Unmarshal(env.Data, &staff))
	assert.Len(t, staff, 2)
}
