package middleware

import (
	"net/http"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/utils"
)

// AdminMiddleware ensures the authenticated user has the 'admin' role.
// MUST be used AFTER AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
		if !ok || user == nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No user found in context")
			return
		}

		if !user.IsAdmin() {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin chains AuthMiddleware and AdminMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return AuthMiddleware(AdminMiddleware(next))
}
