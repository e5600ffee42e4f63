package auth

import (
	"net/http"
	"strings"

	"github.com/poibms/next-meal/internal/apierror"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

type Middleware struct {
	verifier TokenVerifier
}

func NewMiddleware(verifier TokenVerifier) *Middleware {
	return &Middleware{
		verifier: verifier,
	}
}

// Identify attaches the session user to the request context when a valid
// token is present. Requests without one pass through unchanged.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.verifier.VerifyToken(tokenString)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAuth rejects requests that Identify did not resolve to a user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserFromRequest(r); !ok {
			apierror.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get(authorizationHeader); strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	if cookie, err := r.Cookie(ACCESS_TOKEN_COOKIE_NAME); err == nil {
		return cookie.Value
	}
	return ""
}
