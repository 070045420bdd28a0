// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/starcommerce/lms-auth/pkg/contextkeys"
//   ctx = context.WithValue(ctx, contextkeys.PrincipalKey, principal)
//   principal, ok := ctx.Value(contextkeys.PrincipalKey).(authz.Principal)
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains the authenticated authz.Principal for the request.
	// Set by: the authentication boundary (middleware in cmd/lms-auth, or
	// whatever auth gateway fronts this service)
	// Required by: permission middleware, all /api/me endpoints
	// Type: authz.Principal
	PrincipalKey Key = "principal"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: Logger
	// Type: string
	RequestIDKey Key = "request_id"
)
