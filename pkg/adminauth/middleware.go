package adminauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

type contextKey string

const adminContextKey contextKey = "admin"

// Middleware rejects requests without a valid bearer session token and puts
// the admin identity on the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "missing bearer token"})
			return
		}

		admin, err := s.Verify(tokenStr)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "invalid or expired session"})
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminFromContext returns the admin identity stored by Middleware, if any.
func AdminFromContext(ctx context.Context) (*Admin, bool) {
	admin, ok := ctx.Value(adminContextKey).(*Admin)
	return admin, ok
}
