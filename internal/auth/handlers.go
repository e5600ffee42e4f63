package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/models"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

// Session is the result of a successful code exchange with the auth provider.
type Session struct {
	User        User
	AccessToken string
}

type Authenticator interface {
	AuthorizationURL() (string, error)
	AuthenticateWithCode(ctx context.Context, code string) (*Session, error)
}

// Provisioner creates the local profile on first sign-in.
type Provisioner interface {
	GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error)
}

type WorkOSAuthenticator struct {
	clientID    string
	redirectURI string
}

func NewWorkOSAuthenticator(clientID, redirectURI string) *WorkOSAuthenticator {
	return &WorkOSAuthenticator{clientID: clientID, redirectURI: redirectURI}
}

func (a *WorkOSAuthenticator) AuthorizationURL() (string, error) {
	authorizationURL, err := usermanagement.GetAuthorizationURL(
		usermanagement.GetAuthorizationURLOpts{
			ClientID:    a.clientID,
			Provider:    "authkit",
			RedirectURI: a.redirectURI,
		},
	)
	if err != nil {
		return "", err
	}
	return authorizationURL.String(), nil
}

func (a *WorkOSAuthenticator) AuthenticateWithCode(ctx context.Context, code string) (*Session, error) {
	resp, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: a.clientID,
		Code:     code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with code: %w", err)
	}
	return &Session{
		User:        User{ID: resp.User.ID, Email: resp.User.Email},
		AccessToken: resp.AccessToken,
	}, nil
}

type Handlers struct {
	authenticator Authenticator
	provisioner   Provisioner
	secureCookies bool
}

func NewHandlers(authenticator Authenticator, provisioner Provisioner, secureCookies bool) *Handlers {
	return &Handlers{
		authenticator: authenticator,
		provisioner:   provisioner,
		secureCookies: secureCookies,
	}
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	authorizationURL, err := h.authenticator.AuthorizationURL()
	if err != nil {
		slog.Error("failed to build authorization URL", slog.String("error", err.Error()))
		apierror.Internal(w)
		return
	}

	http.Redirect(w, r, authorizationURL, http.StatusSeeOther)
}

func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		apierror.Write(w, http.StatusBadRequest, apierror.CodeBadRequest, "code is required")
		return
	}

	session, err := h.authenticator.AuthenticateWithCode(r.Context(), code)
	if err != nil {
		slog.Warn("sign-in callback failed", slog.String("error", err.Error()))
		apierror.Unauthorized(w)
		return
	}

	if _, err := h.provisioner.GetOrCreate(r.Context(), session.User.ID, session.User.Email); err != nil {
		slog.Error("failed to provision profile",
			slog.String("user_id", session.User.ID),
			slog.String("error", err.Error()),
		)
		apierror.Internal(w)
		return
	}

	// no refresh cookie: an expired access token sends the user back through sign-in
	h.setCookie(w, ACCESS_TOKEN_COOKIE_NAME, session.AccessToken, 0)

	http.Redirect(w, r, DefaultRedirectAfterLogin, http.StatusSeeOther)
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, ACCESS_TOKEN_COOKIE_NAME, "", -1)
	http.Redirect(w, r, DefaultRedirectAfterOut, http.StatusSeeOther)
}

func (h *Handlers) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
