package web

import (
	"context"
	"net/http"
	"strings"

	"tunebase/internal/db"
)

type contextKey string

const userContextKey contextKey = "user"

// RequireAuth rejects requests without a valid bearer token and stores
// the resolved user on the request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user stored on ctx, or nil.
func userFrom(ctx context.Context) *db.User {
	user, _ := ctx.Value(userContextKey).(*db.User)
	return user
}
