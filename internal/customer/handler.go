// AngelaMos | 2026
// handler.go

package customer

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
	r.Route("/customers", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{customerID}", h.Get)
		r.Put("/{customerID}", h.Update)
		r.Delete("/{customerID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	id, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		core.ServiceError(w, err, "customer", "email")
		return
	}

	core.Created(w, IDResponse{ID: id})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	customers, err := h.service.List(r.Context(), actor)
	if err != nil {
		core.ServiceError(w, err, "customer", "email")
		return
	}

	core.OK(w, ToCustomerResponseList(customers))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "customerID"))
	if err != nil {
		core.BadRequest(w, "invalid customer id")
		return
	}

	c, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		core.ServiceError(w, err, "customer", "email")
		return
	}

	core.OK(w, ToCustomerResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "customerID"))
	if err != nil {
		core.BadRequest(w, "invalid customer id")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	c, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		core.ServiceError(w, err, "customer", "email")
		return
	}

	core.OK(w, ToCustomerResponse(c))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := rbac.ActorFrom(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	id, err := core.ParseID(chi.URLParam(r, "customerID"))
	if err != nil {
		core.BadRequest(w, "invalid customer id")
		return
	}

	deleted, err := h.service.Delete(r.Context(), actor, id)
	if err != nil {
		core.ServiceError(w, err, "customer", "email")
		return
	}

	core.OK(w, IDResponse{ID: deleted})
}

func (h *Handler) decode(
	w http.ResponseWriter,
	r *http.Request,
) (CustomerRequest, bool) {
	var req CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return req, false
	}

	return req, true
}
