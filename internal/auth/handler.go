package auth

import (
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*internal.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	tokens, err := h.Service.Authenticate(dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware resolves the bearer token into a Principal on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, r, internal.ErrMissingToken)
			return
		}

		principal, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "subject", principal.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AnonymousOperator attaches a full-scope principal. It replaces AuthMiddleware when
// authentication is disabled.
func AnonymousOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := &internal.Principal{Subject: "anonymous", Scopes: OperatorScopes}
		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
