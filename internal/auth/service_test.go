// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
)

type memoryTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{byHash: map[string]*RefreshToken{}}
}

func (m *memoryTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token.CreatedAt = time.Now()
	cp := *token
	m.byHash[token.TokenHash] = &cp
	return nil
}

func (m *memoryTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memoryTokens) each(fn func(*RefreshToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		fn(t)
	}
}

func (m *memoryTokens) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	m.each(func(t *RefreshToken) {
		if t.ID == id {
			now := time.Now()
			t.IsUsed = true
			t.UsedAt = &now
			t.ReplacedByID = &replacedByID
		}
	})
	return nil
}

func (m *memoryTokens) revokeWhere(match func(*RefreshToken) bool) {
	m.each(func(t *RefreshToken) {
		if match(t) && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	})
}

func (m *memoryTokens) RevokeByID(_ context.Context, id string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.ID == id })
	return nil
}

func (m *memoryTokens) RevokeByFamilyID(_ context.Context, familyID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memoryTokens) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*UserInfo
	nextID  int64
}

func newFakeUsers(users ...UserInfo) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*UserInfo{}}
	for _, u := range users {
		cp := u
		f.byEmail[u.Email] = &cp
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUsers) UpsertIdentity(_ context.Context, identity Identity) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.byEmail[identity.Email]; ok {
		return u, nil
	}
	f.nextID++
	u := &UserInfo{ID: f.nextID, Email: identity.Email, Name: identity.Name}
	f.byEmail[identity.Email] = u
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = &hash
			return nil
		}
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

const testPassword = "correct horse battery"

func newTestService(t *testing.T) (*Service, *memoryTokens, *fakeUsers) {
	t.Helper()

	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)

	users := newFakeUsers(
		UserInfo{ID: 1, Email: "admin@x.io", Name: "Ada", PasswordHash: &hash},
		UserInfo{ID: 2, Email: "sso@x.io", Name: "Sso"},
	)
	tokens := newMemoryTokens()

	return NewService(tokens, newTestJWTManager(t, time.Minute), users), tokens, users
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "admin@x.io", Password: testPassword}, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, 60, resp.Tokens.ExpiresIn)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	tests := []LoginRequest{
		{Email: "admin@x.io", Password: "wrong password"},
		{Email: "ghost@x.io", Password: testPassword},
		{Email: "sso@x.io", Password: testPassword},
	}
	for _, req := range tests {
		_, err := svc.Login(ctx, req, "ua", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials, req.Email)
	}
}

func TestCompleteSignInCreatesUser(t *testing.T) {
	svc, _, users := newTestService(t)

	resp, err := svc.CompleteSignIn(context.Background(),
		Identity{Email: "new@x.io", Name: "Neo"}, ProviderOIDC, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "new@x.io", resp.User.Email)

	u, err := users.GetByEmail(context.Background(), "new@x.io")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, u.ID)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginRequest{Email: "admin@x.io", Password: testPassword}, "ua", "ip")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, "ua", "ip")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, "ua", "ip")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = svc.Refresh(ctx, second.Tokens.RefreshToken, "ua", "ip")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, "unknown", "ua", "ip")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "admin@x.io", Password: testPassword}, "ua", "ip")
	require.NoError(t, err)

	err = svc.Logout(ctx, resp.Tokens.RefreshToken, 2)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.Logout(ctx, resp.Tokens.RefreshToken, 1))
	require.NoError(t, svc.Logout(ctx, "already-gone", 1))

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken, "ua", "ip")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "admin@x.io", Password: testPassword}, "ua", "ip")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, 1, "not it", "a new password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, 1, testPassword, "a new password"))

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken, "ua", "ip")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@x.io", Password: "a new password"}, "ua", "ip")
	assert.NoError(t, err)
}
