package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poibms/next-meal/internal/auth"
	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	active bool
	err    error
	calls  int
}

func (f *fakeChecker) SubscriptionActive(ctx context.Context, userID string) (bool, error) {
	f.calls++
	return f.active, f.err
}

type fakeRecorder struct {
	decisions []string
}

func (f *fakeRecorder) RecordWebhookEvent(string, string)         {}
func (f *fakeRecorder) RecordGateDecision(d string)               { f.decisions = append(f.decisions, d) }
func (f *fakeRecorder) RecordMealPlanLatency(time.Duration, bool) {}
func (f *fakeRecorder) RecordHTTPStatus(int)                      {}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(g *Gate, path string, user *auth.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	g.Middleware(okHandler).ServeHTTP(rec, req)
	return rec
}

var signedIn = &auth.User{ID: "user_1", Email: "a@example.com"}

func TestGate_Unauthenticated(t *testing.T) {
	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/", http.StatusOK, ""},
		{"/sign-up", http.StatusOK, ""},
		{"/sign-up/verify", http.StatusOK, ""},
		{"/subscribe", http.StatusOK, ""},
		{"/api/webhook", http.StatusOK, ""},
		{"/api/check-subscription", http.StatusOK, ""},
		{"/api/checkout", http.StatusOK, ""},
		{"/api/plans", http.StatusOK, ""},
		{"/auth/callback", http.StatusOK, ""},
		{"/metrics", http.StatusOK, ""},
		{"/healthz", http.StatusOK, ""},
		{"/mealplan", http.StatusTemporaryRedirect, "/sign-up"},
		{"/profile", http.StatusTemporaryRedirect, "/sign-up"},
		{"/create-profile", http.StatusTemporaryRedirect, "/sign-up"},
		{"/api/profile/subscription-status", http.StatusUnauthorized, ""},
		{"/api/generate-mealplan", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			checker := &fakeChecker{}
			rec := serve(New(checker, FailOpen, nil), tt.path, nil)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Zero(t, checker.calls)
		})
	}
}

func TestGate_UnauthorizedAPIBody(t *testing.T) {
	rec := serve(New(&fakeChecker{}, FailOpen, nil), "/api/profile/unsubscribe", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","code":"unauthorized"}`, rec.Body.String())
}

func TestGate_StaticAssetsBypass(t *testing.T) {
	recorder := &fakeRecorder{}
	g := New(&fakeChecker{}, FailOpen, recorder)

	for _, path := range []string{"/static/app.css", "/logo.png", "/js/main.js", "/fonts/a.woff2"} {
		rec := serve(g, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Empty(t, recorder.decisions)
}

func TestGate_SignedInOnSignUpRedirectsToMealPlan(t *testing.T) {
	rec := serve(New(&fakeChecker{active: true}, FailOpen, nil), "/sign-up", signedIn)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/mealplan", rec.Header().Get("Location"))
}

func TestGate_MealPlan(t *testing.T) {
	t.Run("inactive redirects to subscribe", func(t *testing.T) {
		checker := &fakeChecker{active: false}
		rec := serve(New(checker, FailOpen, nil), "/mealplan", signedIn)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/subscribe", rec.Header().Get("Location"))
		assert.Equal(t, 1, checker.calls)
	})

	t.Run("active passes through", func(t *testing.T) {
		recorder := &fakeRecorder{}
		rec := serve(New(&fakeChecker{active: true}, FailOpen, recorder), "/mealplan", signedIn)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{DecisionAllow}, recorder.decisions)
	})

	t.Run("checker error fails open", func(t *testing.T) {
		recorder := &fakeRecorder{}
		rec := serve(New(&fakeChecker{err: errors.New("timeout")}, FailOpen, recorder), "/mealplan", signedIn)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{DecisionFailOpen}, recorder.decisions)
	})

	t.Run("checker error fails closed", func(t *testing.T) {
		recorder := &fakeRecorder{}
		rec := serve(New(&fakeChecker{err: errors.New("timeout")}, FailClosed, recorder), "/mealplan", signedIn)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/subscribe", rec.Header().Get("Location"))
		assert.Equal(t, []string{DecisionFailClosed}, recorder.decisions)
	})
}

func TestGate_SignedInOtherRoutesSkipChecker(t *testing.T) {
	checker := &fakeChecker{}
	g := New(checker, FailOpen, nil)

	for _, path := range []string{"/profile", "/subscribe", "/api/profile/subscription-status"} {
		rec := serve(g, path, signedIn)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Zero(t, checker.calls)
}
