package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/billing"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/subscription"
	"github.com/stripe/stripe-go/v84"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

type SubscriptionService interface {
	CreateCheckoutSession(ctx context.Context, planType, userID, email string) (string, error)
	Status(ctx context.Context, userID string) (*subscription.Status, error)
	IsActive(ctx context.Context, userID string) (bool, error)
	ChangePlan(ctx context.Context, userID, newPlan string) (*stripe.Subscription, error)
	Unsubscribe(ctx context.Context, userID string) (*stripe.Subscription, error)
}

type PlanLister interface {
	Plans() []billing.Plan
}

type CheckoutHandler struct {
	subscriptions SubscriptionService
	plans         PlanLister
}

func NewCheckoutHandler(subscriptions SubscriptionService, plans PlanLister) *CheckoutHandler {
	return &CheckoutHandler{subscriptions: subscriptions, plans: plans}
}

type CreateCheckoutRequest struct {
	PlanType string `json:"planType"`
	UserID   string `json:"userId"`
	Email    string `json:"email"`
}

type CreateCheckoutResponse struct {
	URL string `json:"url"`
}

type CheckSubscriptionResponse struct {
	SubscriptionActive bool `json:"subscriptionActive"`
}

type ChangePlanRequest struct {
	NewPlan string `json:"newPlan"`
}

type SubscriptionResponse struct {
	Subscription any `json:"subscription"`
}

func (h *CheckoutHandler) CheckSubscription(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		apierror.Write(w, http.StatusBadRequest, apierror.CodeBadRequest, "User ID is required")
		return
	}

	active, err := h.subscriptions.IsActive(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, "check_subscription")
		return
	}
	writeJSON(w, CheckSubscriptionResponse{SubscriptionActive: active})
}

// CreateCheckout starts a Stripe Checkout session. A signed-in caller's
// identity takes precedence over the ids in the body.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "checkout")
		return
	}
	if user, ok := auth.GetUserFromRequest(r); ok {
		req.UserID = user.ID
		if user.Email != "" {
			req.Email = user.Email
		}
	}

	logging.EnrichUser(r.Context(), req.UserID, req.Email)
	logging.EnrichSubscription(r.Context(), req.PlanType, "")

	url, err := h.subscriptions.CreateCheckoutSession(r.Context(), req.PlanType, req.UserID, req.Email)
	if err != nil {
		writeError(w, r, err, "checkout")
		return
	}
	writeJSON(w, CreateCheckoutResponse{URL: url})
}

func (h *CheckoutHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.plans.Plans())
}

func (h *CheckoutHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromRequest(r)
	if !ok {
		apierror.Unauthorized(w)
		return
	}

	var req ChangePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "change_plan")
		return
	}
	logging.EnrichSubscription(r.Context(), req.NewPlan, "")

	updated, err := h.subscriptions.ChangePlan(r.Context(), user.ID, req.NewPlan)
	if err != nil {
		writeError(w, r, err, "change_plan")
		return
	}
	logging.EnrichSubscription(r.Context(), "", updated.ID)
	writeJSON(w, SubscriptionResponse{Subscription: updated})
}

func (h *CheckoutHandler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromRequest(r)
	if !ok {
		apierror.Unauthorized(w)
		return
	}

	status, err := h.subscriptions.Status(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "subscription_status")
		return
	}
	// a missing profile encodes as {"subscription": null}
	writeJSON(w, SubscriptionResponse{Subscription: status})
}

func (h *CheckoutHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUserFromRequest(r)
	if !ok {
		apierror.Unauthorized(w)
		return
	}

	canceled, err := h.subscriptions.Unsubscribe(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "unsubscribe")
		return
	}
	logging.EnrichSubscription(r.Context(), "", canceled.ID)
	writeJSON(w, SubscriptionResponse{Subscription: canceled})
}
