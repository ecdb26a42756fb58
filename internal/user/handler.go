// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/me", h.GetMe)
		r.Get("/me/permissions", h.GetPermissions)
		r.Get("/roles", h.ListRoles)
		r.Get("/staff", h.ListStaff)
	})
}

// RegisterAdminRoutes registers user management endpoints. The service
// enforces the policy; adminOnly rejects other roles before decoding.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticated, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	u, err := h.service.GetMe(r.Context(), actor)
	if err != nil {
		core.ServiceError(w, err, "user", "")
		return
	}

	core.OK(w, ToUserResponse(u))
}

// GetPermissions reports what the caller may do so clients can hide
// controls. Unassigned callers get setup_required.
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, rbac.PermissionsFor(actor.Role))
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, roles)
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	users, err := h.service.ListStaff(r.Context(), actor)
	if err != nil {
		core.ServiceError(w, err, "user", "")
		return
	}

	core.OK(w, ToStaffResponseList(users))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	q := r.URL.Query()
	params := ListUsersParams{
		Page:       parseIntQuery(r, "page", 1),
		PageSize:   parseIntQuery(r, "page_size", 20),
		Search:     q.Get("search"),
		Unassigned: q.Get("unassigned") == "true",
	}
	if raw := q.Get("role_id"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			core.BadRequest(w, "invalid role_id")
			return
		}
		params.RoleID = &id
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), actor, params)
	if err != nil {
		core.ServiceError(w, err, "user", "")
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return
	}

	u, err := h.service.CreateLocalUser(r.Context(), actor, req)
	if err != nil {
		core.ServiceError(w, err, "user", "email")
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.BadRequest(w, "invalid user id")
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		core.ServiceError(w, err, "user", "")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.BadRequest(w, "invalid user id")
		return
	}

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return
	}

	u, err := h.service.UpdateRole(r.Context(), actor, id, req.RoleID)
	if err != nil {
		core.ServiceError(w, err, "user", "")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
