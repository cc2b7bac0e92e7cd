// Package security provides security-related utilities including user context management.
package security

import "context"

// UserContext carries the authenticated operator through the request chain.
type UserContext struct {
	UserID     string
	Email      string
	Roles      []string
	CustomerID string // non-empty for customer-scoped accounts
}

type userKey struct{}

// WithUser adds the authenticated user to context.
// Used by middleware to propagate identity through the request chain.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from context, or nil.
func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetUserID retrieves user ID from context.
// Returns empty string if not found.
//
// Usage in domain layer:
//
//	actor := security.GetUserID(ctx)
//	if actor != "" {
//	    bol.CompletedBy = actor
//	}
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole reports whether the context user carries the given role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
