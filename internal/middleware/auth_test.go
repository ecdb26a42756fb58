// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

type fakeVerifier struct {
	tokens map[string]*AccessTokenClaims
	err    error
}

func (f fakeVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*AccessTokenClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims, ok := f.tokens[token]
	if !ok {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}
	return claims, nil
}

type fakeResolver struct {
	roles map[string]rbac.Role
	err   error
}

func (f fakeResolver) ResolveRole(_ context.Context, email string) (rbac.Role, error) {
	if f.err != nil {
		return rbac.RoleUnassigned, f.err
	}
	role, ok := f.roles[email]
	if !ok {
		return rbac.RoleUnassigned, core.ErrNotFound
	}
	return role, nil
}

func actorEcho(t *testing.T, got *rbac.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := rbac.ActorFrom(r.Context())
		require.True(t, ok)
		*got = actor
		w.WriteHeader(http.StatusOK)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, ExtractToken(r), tt.header)
	}
}

func TestAuthenticatorRejects(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		wantCode string
	}{
		{"missing token", "", fakeVerifier{}, "UNAUTHORIZED"},
		{"unknown token", "Bearer nope", fakeVerifier{}, "TOKEN_INVALID"},
		{"expired", "Bearer x", fakeVerifier{err: core.ErrTokenExpired}, "TOKEN_EXPIRED"},
		{"other failure", "Bearer x", fakeVerifier{err: errors.New("boom")}, "TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticator(tt.verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthenticatorAndResolveActor(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]*AccessTokenClaims{
		"admin-token": {UserID: 1, Email: "Admin@x.io"},
		"new-token":   {UserID: 3, Email: "new@x.io"},
		"ghost-token": {UserID: 9, Email: "ghost@x.io"},
	}}
	resolver := fakeResolver{roles: map[string]rbac.Role{
		"admin@x.io": rbac.RoleAdmin,
		"new@x.io":   rbac.RoleUnassigned,
	}}

	tests := []struct {
		token string
		want  rbac.Actor
	}{
		{"admin-token", rbac.Actor{UserID: 1, Email: "admin@x.io", Role: rbac.RoleAdmin}},
		{"new-token", rbac.Actor{UserID: 3, Email: "new@x.io", Role: rbac.RoleUnassigned}},
		{"ghost-token", rbac.Actor{UserID: 9, Email: "ghost@x.io", Role: rbac.RoleUnassigned}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			var got rbac.Actor
			h := Authenticator(verifier)(ResolveActor(resolver)(actorEcho(t, &got)))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveActorLookupFailureIsUnassigned(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]*AccessTokenClaims{
		"t": {UserID: 1, Email: "admin@x.io"},
	}}
	resolver := fakeResolver{err: errors.New("connection refused")}

	var got rbac.Actor
	h := Authenticator(verifier)(ResolveActor(resolver)(actorEcho(t, &got)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer t")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, rbac.RoleUnassigned, got.Role)
}

func TestResolveActorWithoutClaims(t *testing.T) {
	h := ResolveActor(fakeResolver{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name  string
		actor *rbac.Actor
		want  int
	}{
		{"admin", &rbac.Actor{UserID: 1, Role: rbac.RoleAdmin}, http.StatusNoContent},
		{"sales", &rbac.Actor{UserID: 2, Role: rbac.RoleSales}, http.StatusForbidden},
		{"unassigned", &rbac.Actor{UserID: 3}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.actor != nil {
				r = r.WithContext(rbac.WithActor(r.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, r)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticatorStoresIdentity(t *testing.T) {
	verifier := fakeVerifier{tokens: map[string]*AccessTokenClaims{
		"sales-token": {UserID: 2, Email: "sales@x.io"},
	}}

	var gotID int64
	var gotEmail string
	h := Authenticator(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotEmail = GetUserEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer sales-token")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, int64(2), gotID)
	assert.Equal(t, "sales@x.io", gotEmail)
	assert.Zero(t, GetUserID(context.Background()))
	assert.Empty(t, GetUserEmail(context.Background()))
}
