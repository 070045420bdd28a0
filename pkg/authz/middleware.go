package authz

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/starcommerce/lms-auth/pkg/contextkeys"
)

// CheckObserver counts permission check outcomes. Implemented by
// observability.CheckObserver; nil disables instrumentation.
type CheckObserver interface {
	ObserveCheck(allowed bool)
}

// WithPrincipal stores the principal in the context. The authentication
// layer in front of this service calls it once per request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextkeys.PrincipalKey, p)
}

// PrincipalFromContext returns the request principal. The second return is
// false when no authentication middleware ran.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextkeys.PrincipalKey).(Principal)
	return p, ok
}

// Middleware guards routes with permission requirements.
type Middleware struct {
	resolver *Resolver
	observer CheckObserver
}

// NewMiddleware creates the permission middleware.
func NewMiddleware(resolver *Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// WithObserver attaches check instrumentation.
func (m *Middleware) WithObserver(observer CheckObserver) *Middleware {
	m.observer = observer
	return m
}

func (m *Middleware) observe(allowed bool) {
	if m.observer != nil {
		m.observer.ObserveCheck(allowed)
	}
}

// writeDenied writes the uniform denial body. Denied and nonexistent codes
// produce identical responses so probing reveals nothing.
func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RequirePermission requires one permission code.
func (m *Middleware) RequirePermission(code string) func(http.Handler) http.Handler {
	return m.require(func(ctx context.Context, p Principal) bool {
		return m.resolver.HasPerm(ctx, p, code)
	})
}

// RequireAnyPermission requires at least one of the codes.
func (m *Middleware) RequireAnyPermission(codes ...string) func(http.Handler) http.Handler {
	return m.require(func(ctx context.Context, p Principal) bool {
		for _, code := range codes {
			if m.resolver.HasPerm(ctx, p, code) {
				return true
			}
		}
		return false
	})
}

func (m *Middleware) require(check func(context.Context, Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || !p.Authenticated {
				m.observe(false)
				writeDenied(w, http.StatusUnauthorized, "authentication required")
				return
			}

			allowed := check(r.Context(), p)
			m.observe(allowed)
			if !allowed {
				writeDenied(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
