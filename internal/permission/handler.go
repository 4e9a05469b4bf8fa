package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, params ListParams) (*PermissionsResponse, error)
	GetByID(ctx context.Context, id string) (*Permission, error)
	GetByName(ctx context.Context, name string) (*Permission, error)
	Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	Update(ctx context.Context, id string, dto UpdatePermissionDTO) (*Permission, error)
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

// Routes mounts the permission endpoints. write guards the mutating routes.
func (h *Handler) Routes(r chi.Router, write func(http.Handler) http.Handler) {
	r.Get("/", h.ListPermissions)
	r.Get("/{id}", h.GetPermission)
	r.Group(func(wr chi.Router) {
		if write != nil {
			wr.Use(write)
		}
		wr.Post("/", h.CreatePermission)
		wr.Put("/{id}", h.UpdatePermission)
		wr.Delete("/{id}", h.DeletePermission)
	})
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	params := ListParams{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.Service.List(r.Context(), params)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p.ToResponse())
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	p, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.Logger.Info("CreatePermission: permission created", "id", p.ID, "name", p.Name)
	h.WriteJSON(w, http.StatusCreated, p.ToResponse())
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePermissionDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	p, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p.ToResponse())
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
