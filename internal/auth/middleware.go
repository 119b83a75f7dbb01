package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type contextKey struct{}

var userContextKey contextKey

// RequireUser guards a route with an access token. The resolved user is
// stored in the request context for the handler behind it.
func RequireUser(service *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusForbidden, "could not validate credentials")
			return
		}

		user, err := service.CurrentUser(r.Context(), token, TokenTypeAccess)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrTokenRevoked) {
				writeError(w, http.StatusForbidden, "could not validate credentials")
				return
			}
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// ContextWithUser attaches a resolved user to the context.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user placed there by RequireUser.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey).(User)
	return user, ok
}
