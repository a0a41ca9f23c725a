package middleware

import (
	"context"
	"net/http"
)

// RememberValidator is implemented by *goCred.Engine.
type RememberValidator interface {
	ValidateRememberToken(ctx context.Context, value string) (string, error)
}

type accountIDContextKey struct{}

// AccountIDFromContext returns the account admitted by [RequireRemember].
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDContextKey{}).(string)
	return id, ok && id != ""
}

// RequireRemember rejects requests without a valid remember-me cookie named
// cookieName. A rejected cookie is cleared.
func RequireRemember(v RememberValidator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			accountID, err := v.ValidateRememberToken(r.Context(), c.Value)
			if err != nil {
				http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDContextKey{}, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
