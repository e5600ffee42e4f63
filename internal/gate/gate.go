package gate

import (
	"net/http"
	"path"
	"strings"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	SignUpPath    = "/sign-up"
	SubscribePath = "/subscribe"
	MealPlanPath  = "/mealplan"
)

// FailurePolicy decides what happens to a meal plan page request when the
// subscription status cannot be determined.
type FailurePolicy int

const (
	FailOpen FailurePolicy = iota
	FailClosed
)

const (
	DecisionStatic            = "static"
	DecisionPublic            = "public"
	DecisionAllow             = "allow"
	DecisionRedirectSignUp    = "redirect_sign_up"
	DecisionUnauthorized      = "unauthorized"
	DecisionRedirectMealPlan  = "redirect_mealplan"
	DecisionRedirectSubscribe = "redirect_subscribe"
	DecisionFailOpen          = "fail_open"
	DecisionFailClosed        = "fail_closed"
)

var publicPrefixes = []string{SignUpPath, SubscribePath, "/api/webhook", "/auth/"}

var publicPaths = map[string]bool{
	"/":                       true,
	"/api/check-subscription": true,
	"/api/checkout":           true,
	"/api/plans":              true,
	"/metrics":                true,
	"/healthz":                true,
}

var staticExtensions = map[string]bool{
	".html": true, ".htm": true, ".css": true, ".js": true,
	".jpg": true, ".jpeg": true, ".webp": true, ".png": true, ".gif": true, ".svg": true,
	".ttf": true, ".woff": true, ".woff2": true, ".ico": true,
	".csv": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".zip": true,
	".webmanifest": true,
}

type Gate struct {
	checker  StatusChecker
	policy   FailurePolicy
	recorder metrics.Recorder
}

func New(checker StatusChecker, policy FailurePolicy, recorder metrics.Recorder) *Gate {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Gate{checker: checker, policy: policy, recorder: recorder}
}

// Middleware must run after auth.Middleware.Identify.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if isStatic(p) {
			next.ServeHTTP(w, r)
			return
		}

		user, authenticated := auth.GetUserFromRequest(r)

		if !authenticated {
			if isPublic(p) {
				g.decide(r, DecisionPublic)
				next.ServeHTTP(w, r)
				return
			}
			if isAPI(p) {
				g.decide(r, DecisionUnauthorized)
				apierror.Unauthorized(w)
				return
			}
			g.decide(r, DecisionRedirectSignUp)
			http.Redirect(w, r, SignUpPath, http.StatusTemporaryRedirect)
			return
		}

		logging.EnrichUser(r.Context(), user.ID, user.Email)

		if strings.HasPrefix(p, SignUpPath) {
			g.decide(r, DecisionRedirectMealPlan)
			http.Redirect(w, r, MealPlanPath, http.StatusTemporaryRedirect)
			return
		}

		if strings.HasPrefix(p, MealPlanPath) {
			active, err := g.checker.SubscriptionActive(r.Context(), user.ID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", user.ID).Msg("subscription status check failed")
				if g.policy == FailClosed {
					g.decide(r, DecisionFailClosed)
					http.Redirect(w, r, SubscribePath, http.StatusTemporaryRedirect)
					return
				}
				g.decide(r, DecisionFailOpen)
				next.ServeHTTP(w, r)
				return
			}
			if !active {
				g.decide(r, DecisionRedirectSubscribe)
				http.Redirect(w, r, SubscribePath, http.StatusTemporaryRedirect)
				return
			}
		}

		g.decide(r, DecisionAllow)
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) decide(r *http.Request, decision string) {
	logging.EnrichGate(r.Context(), decision)
	g.recorder.RecordGateDecision(decision)
}

func isStatic(p string) bool {
	if isAPI(p) {
		return false
	}
	if strings.HasPrefix(p, "/static/") {
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

func isAPI(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func isPublic(p string) bool {
	if publicPaths[p] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
