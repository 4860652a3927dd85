package auth

import (
	"context"
	"net/http"

	"blog/internal/models"
)

type contextKey string

const userCtxKey = contextKey("user")

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext returns the user resolved by Authenticate, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// Authenticate resolves the session once per request and stores the user in
// the request context. Store failures are passed to onError and the request
// continues anonymously.
func (m *Manager) Authenticate(onError func(r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := m.CurrentUser(r)
			if err != nil && onError != nil {
				onError(r, err)
			}
			if u != nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous visitors to the login page and stops the
// chain there.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/blog/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
