// Package auth resolves the owner identifier that scopes every task operation.
//
// There is no real authentication yet: StubOwner assigns one fixed owner to
// every request, so all data is effectively single-tenant.
package auth

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// WithOwner returns a copy of ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ownerID)
}

// OwnerID returns the owner set by StubOwner, or "" if not set.
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// StubOwner injects ownerID into every request context that does not already carry one.
func StubOwner(ownerID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if OwnerID(r.Context()) == "" {
				r = r.WithContext(WithOwner(r.Context(), ownerID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
