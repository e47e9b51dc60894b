package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gatekeep-io/gatekeep/internal/observability"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// Headers set by the trusted gateway after token verification. Requests
// reaching this service directly, without the gateway, carry no identity.
const (
	HeaderPrincipalID = "X-Principal-ID"
	HeaderRoleHint    = "X-Role-Hint"
)

// Middleware wires authorization checks into HTTP handlers.
type Middleware struct {
	Engine  *Engine
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// FromHeaders extracts the verified principal identity from gateway headers
// into the request context as an immutable value.
func (m Middleware) FromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderPrincipalID))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("malformed principal header", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal := shared.AuthenticatedPrincipal{
			PrincipalID:  id,
			RoleNameHint: strings.TrimSpace(r.Header.Get(HeaderRoleHint)),
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// Require ensures the current principal holds the given permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perm == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			_, err := m.Engine.Authorize(r.Context(), principal.PrincipalID, perm)
			m.Metrics.RecordDecision(err == nil)
			if err != nil {
				switch {
				case errors.Is(err, shared.ErrUnauthenticated):
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				case errors.Is(err, shared.ErrPermissionDenied):
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				default:
					if m.Logger != nil {
						m.Logger.Error("authorize", slog.String("permission", perm), slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
