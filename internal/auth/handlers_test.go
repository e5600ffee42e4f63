package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poibms/next-meal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	url     string
	session *Session
	err     error
}

func (f *fakeAuthenticator) AuthorizationURL() (string, error) {
	return f.url, f.err
}

func (f *fakeAuthenticator) AuthenticateWithCode(ctx context.Context, code string) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeProvisioner struct {
	created []string
	err     error
}

func (f *fakeProvisioner) GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, userID)
	return &models.Profile{UserID: userID, Email: email}, nil
}

func TestSignIn_RedirectsToProvider(t *testing.T) {
	h := NewHandlers(&fakeAuthenticator{url: "https://auth.example.com/authorize"}, &fakeProvisioner{}, false)

	w := httptest.NewRecorder()
	h.SignIn(w, httptest.NewRequest(http.MethodGet, "/auth/sign-in", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://auth.example.com/authorize", w.Header().Get("Location"))
}

func TestCallback_ProvisionsProfileAndSetsCookie(t *testing.T) {
	prov := &fakeProvisioner{}
	h := NewHandlers(&fakeAuthenticator{session: &Session{
		User:        User{ID: "user_1", Email: "a@example.com"},
		AccessToken: "access",
	}}, prov, true)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, DefaultRedirectAfterLogin, w.Header().Get("Location"))
	assert.Equal(t, []string{"user_1"}, prov.created)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ACCESS_TOKEN_COOKIE_NAME, cookies[0].Name)
	assert.Equal(t, "access", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestCallback_MissingCode(t *testing.T) {
	h := NewHandlers(&fakeAuthenticator{}, &fakeProvisioner{}, false)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_ExchangeFails(t *testing.T) {
	prov := &fakeProvisioner{}
	h := NewHandlers(&fakeAuthenticator{err: errors.New("bad code")}, prov, false)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, prov.created)
}

func TestCallback_ProvisioningFails(t *testing.T) {
	h := NewHandlers(&fakeAuthenticator{session: &Session{User: User{ID: "user_1"}, AccessToken: "access"}},
		&fakeProvisioner{err: errors.New("db down")}, false)

	w := httptest.NewRecorder()
	h.Callback(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSignOut_ClearsAccessCookie(t *testing.T) {
	h := NewHandlers(&fakeAuthenticator{}, &fakeProvisioner{}, false)

	w := httptest.NewRecorder()
	h.SignOut(w, httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ACCESS_TOKEN_COOKIE_NAME, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
