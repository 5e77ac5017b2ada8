package middleware

import (
	"net/http"
	"strings"

	"github.com/minseoan/podomarket/internal/auth"
	"github.com/minseoan/podomarket/internal/domain"
)

// WithUser extracts the bearer token from the Authorization header and, when
// valid, attaches the authenticated principal to the request context.
// The middleware is optional: requests without a valid token continue
// anonymously, and RequireUser decides which routes demand authentication.
func WithUser(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				// An invalid token is treated the same as no token; the
				// route's RequireUser produces the 401.
				next.ServeHTTP(w, r)
				return
			}

			user := &domain.User{ID: claims.UserID, Role: claims.Role}
			ctx := domain.NewContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser ensures the request carries an authenticated principal,
// responding 401 otherwise.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.IsAuthenticated(r.Context()) {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
