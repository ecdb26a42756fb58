// AngelaMos | 2026
// handler.go

package role

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

type LookupRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type Response struct {
	Email string `json:"email"`
	Role  *int64 `json:"role"`
	Name  string `json:"role_name"`
}

type Handler struct {
	resolver  Resolver
	validator *validator.Validate
}

func NewHandler(resolver Resolver) *Handler {
	return &Handler{
		resolver:  resolver,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.With(authenticated).Get("/auth/role", h.GetOwnRole)
	r.With(authenticated).Post("/auth/role", h.LookupRole)
}

func (h *Handler) GetOwnRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, Response{
		Email: actor.Email,
		Role:  actor.Role.ID(),
		Name:  actor.Role.String(),
	})
}

// LookupRole resolves the role for an email. Callers may look up their own
// email; anyone else's requires the user management permission.
func (h *Handler) LookupRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != actor.Email {
		err := rbac.Authorize(r.Context(), actor, rbac.ManageUserRoles, rbac.Target{})
		if err != nil {
			core.Forbidden(w, "")
			return
		}
	}

	role, err := h.resolver.ResolveRole(r.Context(), email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, Response{
		Email: email,
		Role:  role.ID(),
		Name:  role.String(),
	})
}
