package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/models"
)

type profileContextKey string

const (
	profileKey profileContextKey = "profile"
)

func GetProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*models.Profile)
	return p, ok
}

func ContextWithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// Middleware loads the caller's profile, creating it on first use.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.GetUserFromRequest(r)
			if !ok {
				apierror.Unauthorized(w)
				return
			}

			p, err := svc.GetOrCreate(r.Context(), user.ID, user.Email)
			if err != nil {
				slog.Error("failed to get or create profile",
					slog.String("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				logging.EnrichError(r.Context(), err, "profile")
				apierror.Internal(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithProfile(r.Context(), p)))
		})
	}
}
