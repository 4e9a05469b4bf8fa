package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
)

// ScopeAuthorization guards routes by the scopes on the request principal.
type ScopeAuthorization struct {
	*transport.BaseHandler
}

func NewScopeAuthorization(logger *slog.Logger) *ScopeAuthorization {
	return &ScopeAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// RequireScope lets the request through when the principal holds any of scopes.
func (sa *ScopeAuthorization) RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				sa.WriteAppError(w, r, internal.ErrMissingToken)
				return
			}

			if !principal.HasAnyScope(scopes...) {
				sa.Logger.WarnContext(r.Context(), "access denied: missing scope",
					"subject", principal.Subject,
					"required_scopes", scopes,
					"scopes", principal.Scopes)
				sa.WriteAppError(w, r, internal.ErrInsufficientScope)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRead admits readers and writers.
func (sa *ScopeAuthorization) RequireRead() func(http.Handler) http.Handler {
	return sa.RequireScope(ScopeRead, ScopeWrite)
}

func (sa *ScopeAuthorization) RequireWrite() func(http.Handler) http.Handler {
	return sa.RequireScope(ScopeWrite)
}
