// AngelaMos | 2026
// session.go

package role

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

// ErrSuperseded is returned by Authenticate when the session moved to
// another identity, or signed out, before the lookup finished.
var ErrSuperseded = errors.New("role resolution superseded")

type State struct {
	Email     string
	Role      rbac.Role
	IsLoading bool
}

// Session resolves the role of one authenticated identity once and keeps
// it until the identity changes or signs out.
type Session struct {
	resolver Resolver

	mu         sync.Mutex
	email      string
	role       rbac.Role
	loading    bool
	resolved   bool
	generation uint64
}

func NewSession(resolver Resolver) *Session {
	return &Session{resolver: resolver}
}

// Authenticate binds the session to email and resolves its role. Calling
// it again for the same identity returns the resolved role without a
// lookup.
func (s *Session) Authenticate(
	ctx context.Context,
	email string,
) (rbac.Role, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	if s.email == email && s.resolved {
		role := s.role
		s.mu.Unlock()
		return role, nil
	}
	s.generation++
	gen := s.generation
	s.email = email
	s.role = rbac.RoleUnassigned
	s.loading = true
	s.resolved = false
	s.mu.Unlock()

	role, err := ResolveOrUnassigned(ctx, s.resolver, email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return rbac.RoleUnassigned, ErrSuperseded
	}

	s.loading = false
	if err != nil {
		s.role = rbac.RoleUnassigned
		return rbac.RoleUnassigned, err
	}

	s.role = role
	s.resolved = true
	return role, nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.email = ""
	s.role = rbac.RoleUnassigned
	s.loading = false
	s.resolved = false
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Email:     s.email,
		Role:      s.role,
		IsLoading: s.loading,
	}
}
