// AngelaMos | 2026
// handler.go

package lead

import (
	"encoding/json"
	"net/http"

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
	r.Route("/leads", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{leadID}", h.Get)
		r.Put("/{leadID}", h.Update)
		r.Delete("/{leadID}", h.Delete)
	})

	r.With(authenticated).Get("/lead-statuses", h.ListStatuses)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateLeadRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		core.ServiceError(w, err, "lead", "email")
		return
	}

	core.Created(w, IDResponse{ID: id})
}

// List accepts an optional actor_email query parameter. Callers without
// the view-all permission always see only their own leads.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	filter := ListFilter{ActorEmail: r.URL.Query().Get("actor_email")}

	leads, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		core.ServiceError(w, err, "lead", "email")
		return
	}

	core.OK(w, ToLeadResponseList(leads))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "leadID"))
	if err != nil {
		core.BadRequest(w, "invalid lead id")
		return
	}

	l, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		core.ServiceError(w, err, "lead", "email")
		return
	}

	core.OK(w, ToLeadResponse(l))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "leadID"))
	if err != nil {
		core.BadRequest(w, "invalid lead id")
		return
	}

	var req UpdateLeadRequest
	if !h.decode(w, r, &req) {
		return
	}

	l, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		core.ServiceError(w, err, "lead", "email")
		return
	}

	core.OK(w, ToLeadResponse(l))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "leadID"))
	if err != nil {
		core.BadRequest(w, "invalid lead id")
		return
	}

	deleted, err := h.service.Delete(r.Context(), actor, id)
	if err != nil {
		core.ServiceError(w, err, "lead", "email")
		return
	}

	core.OK(w, IDResponse{ID: deleted})
}

func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	statuses, err := h.service.ListStatuses(r.Context(), actor)
	if err != nil {
		core.ServiceError(w, err, "lead status", "")
		return
	}

	core.OK(w, statuses)
}

type normalizer interface {
	Normalize()
}

func (h *Handler) decode(
	w http.ResponseWriter,
	r *http.Request,
	req normalizer,
) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return false
	}

	return true
}
