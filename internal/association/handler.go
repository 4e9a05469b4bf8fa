package association

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter Filter) (*AssociationsResponse, error)
	Create(ctx context.Context, dto AssociationDTO) (*Association, error)
	Delete(ctx context.Context, dto AssociationDTO) error
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
	r.Get("/", h.ListAssociations)
	r.Group(func(wr chi.Router) {
		if write != nil {
			wr.Use(write)
		}
		wr.Post("/", h.CreateAssociation)
		wr.Delete("/", h.DeleteAssociation)
	})
}

func (h *Handler) ListAssociations(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.ParsePagination(r)
	query := r.URL.Query()

	resp, err := h.Service.List(r.Context(), Filter{
		RoleID:       query.Get("role_id"),
		PermissionID: query.Get("permission_id"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateAssociation(w http.ResponseWriter, r *http.Request) {
	var dto AssociationDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	a, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a)
}

// DeleteAssociation takes role_id and permission_id as query parameters.
func (h *Handler) DeleteAssociation(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dto := AssociationDTO{
		RoleID:       query.Get("role_id"),
		PermissionID: query.Get("permission_id"),
	}

	if err := h.Service.Delete(r.Context(), dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":       true,
		"role_id":       dto.RoleID,
		"permission_id": dto.PermissionID,
	})
}
