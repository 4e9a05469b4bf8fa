package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, params ListParams) (*RolesResponse, error)
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	Update(ctx context.Context, id string, dto UpdateRoleDTO) (*Role, error)
	Delete(ctx context.Context, id string) (*DeleteResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Routes(r chi.Router, write func(http.Handler) http.Handler) {
	r.Get("/", h.ListRoles)
	r.Get("/{id}", h.GetRole)
	r.Group(func(wr chi.Router) {
		if write != nil {
			wr.Use(write)
		}
		wr.Post("/", h.CreateRole)
		wr.Put("/{id}", h.UpdateRole)
		wr.Delete("/{id}", h.DeleteRole)
	})
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)

	resp, err := h.Service.List(r.Context(), ListParams{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, role.ToResponse())
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	role, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.Logger.Info("CreateRole: role created", "id", role.ID, "name", role.Name)
	h.WriteJSON(w, http.StatusCreated, role.ToResponse())
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	role, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, role.ToResponse())
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.Logger.Info("DeleteRole: role deleted", "id", result.ID, "associations_removed", result.AssociationsRemoved)
	h.WriteJSON(w, http.StatusOK, result)
}
