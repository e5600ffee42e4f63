package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/mealplan"
	"github.com/poibms/next-meal/internal/models"
	"github.com/poibms/next-meal/internal/profile"
)

type MealPlanGenerator interface {
	Generate(ctx context.Context, req models.MealPlanRequest) (*models.MealPlan, error)
}

type ActiveChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

type Limiter interface {
	Allow(userID string) bool
	RetryAfter() int
}

type MealPlanHandler struct {
	generator     MealPlanGenerator
	subscriptions ActiveChecker
	limiter       Limiter
}

func NewMealPlanHandler(generator MealPlanGenerator, subscriptions ActiveChecker, limiter Limiter) *MealPlanHandler {
	return &MealPlanHandler{
		generator:     generator,
		subscriptions: subscriptions,
		limiter:       limiter,
	}
}

type MealPlanResponse struct {
	MealPlan *models.MealPlan `json:"mealPlan"`
}

// Generate re-checks the subscription server side; the page gate alone is
// not trusted for API calls.
func (h *MealPlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromRequest(r)
	if !ok {
		apierror.Unauthorized(w)
		return
	}

	active, err := h.subscriptions.IsActive(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "mealplan_subscription")
		return
	}
	if !active {
		apierror.Write(w, http.StatusForbidden, apierror.CodeSubscriptionRequired, "An active subscription is required")
		return
	}

	// malformed requests must not spend the user's generation budget
	var req models.MealPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "mealplan")
		return
	}
	if err := mealplan.Validate(&req); err != nil {
		writeError(w, r, err, "mealplan")
		return
	}
	logging.EnrichMetadata(r.Context(), "diet_type", req.DietType)

	if !h.limiter.Allow(user.ID) {
		w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfter()))
		apierror.Write(w, http.StatusTooManyRequests, apierror.CodeRateLimited, "Too many requests, try again later")
		return
	}

	plan, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "mealplan")
		return
	}
	writeJSON(w, MealPlanResponse{MealPlan: plan})
}

type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CreateProfile runs behind profile.Middleware, which provisions the row.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := profile.GetProfileFromContext(r.Context())
	if !ok {
		apierror.Unauthorized(w)
		return
	}
	logging.EnrichUser(r.Context(), p.UserID, p.Email)
	writeJSON(w, MessageResponse{Message: "Profile created successfully"})
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports ok, or 503 when db is set and unreachable.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				logging.EnrichError(r.Context(), err, "healthz")
				apierror.Write(w, http.StatusServiceUnavailable, apierror.CodeInternal, "Database unavailable")
				return
			}
		}
		writeJSON(w, map[string]string{"status": "ok"})
	}
}
