package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]*User
}

func (f *fakeVerifier) VerifyToken(tokenString string) (*User, error) {
	if user, ok := f.tokens[tokenString]; ok {
		return user, nil
	}
	return nil, errors.New("bad token")
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: map[string]*User{
		"good": {ID: "user_1", Email: "a@example.com"},
	}}
}

func identify(t *testing.T, req *http.Request) (*User, bool) {
	t.Helper()
	var (
		got   *User
		found bool
	)
	h := NewMiddleware(newFakeVerifier()).Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetUserFromRequest(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, found
}

func TestIdentify_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/profile/subscription-status", nil)
	req.Header.Set("Authorization", "Bearer good")

	user, ok := identify(t, req)
	require.True(t, ok)
	assert.Equal(t, "user_1", user.ID)
}

func TestIdentify_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/mealplan", nil)
	req.AddCookie(&http.Cookie{Name: ACCESS_TOKEN_COOKIE_NAME, Value: "good"})

	user, ok := identify(t, req)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", user.Email)
}

func TestIdentify_InvalidTokenPassesThroughAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/mealplan", nil)
	req.Header.Set("Authorization", "Bearer forged")

	_, ok := identify(t, req)
	assert.False(t, ok)
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/profile/unsubscribe", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodPost, "/api/profile/unsubscribe", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &User{ID: "user_1"}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}
