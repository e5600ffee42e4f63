package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poibms/next-meal/internal/billing"
	"github.com/poibms/next-meal/internal/profile"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v84"
)

type BillingProvider interface {
	CreateSubscriptionCheckout(ctx context.Context, p billing.CheckoutParams) (*stripe.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	SwapSubscriptionPrice(ctx context.Context, subscriptionID, itemID, priceID string) (*stripe.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

type PriceCatalog interface {
	PriceID(planType string) (string, bool)
}

// Status is the caller-visible slice of a profile.
type Status struct {
	SubscriptionTier *string `json:"subscriptionTier"`
}

type Service struct {
	billing BillingProvider
	catalog PriceCatalog
	repo    profile.Repository
	baseURL string
}

func NewService(billingProvider BillingProvider, catalog PriceCatalog, repo profile.Repository, baseURL string) *Service {
	return &Service{
		billing: billingProvider,
		catalog: catalog,
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CreateCheckoutSession starts a hosted subscription checkout for planType and
// returns the URL the client should be redirected to.
func (s *Service) CreateCheckoutSession(ctx context.Context, planType, userID, email string) (string, error) {
	if planType == "" || userID == "" || email == "" {
		return "", fmt.Errorf("%w: plan type, user id and email are required", ErrMissingField)
	}

	priceID, ok := s.catalog.PriceID(planType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, planType)
	}

	session, err := s.billing.CreateSubscriptionCheckout(ctx, billing.CheckoutParams{
		PriceID:    priceID,
		PlanType:   planType,
		UserID:     userID,
		Email:      email,
		SuccessURL: s.baseURL + "/?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/subscribe",
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// Status returns the caller's tier, or nil when no profile exists yet.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Status{SubscriptionTier: p.SubscriptionTier}, nil
}

// IsActive reports whether userID has paid access. A missing profile is inactive.
func (s *Service) IsActive(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("%w: user id is required", ErrMissingField)
	}
	p, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.SubscriptionActive, nil
}

// ChangePlan swaps the caller's subscription to newPlan with prorated billing.
func (s *Service) ChangePlan(ctx context.Context, userID, newPlan string) (*stripe.Subscription, error) {
	if newPlan == "" {
		return nil, fmt.Errorf("%w: meal plan is required", ErrMissingField)
	}
	priceID, ok := s.catalog.PriceID(newPlan)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, newPlan)
	}

	subscriptionID, err := s.subscriptionIDFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.billing.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if current.Items == nil || len(current.Items.Data) == 0 || current.Items.Data[0].ID == "" {
		return nil, fmt.Errorf("%w: subscription %s has no items", ErrNoActiveSubscription, subscriptionID)
	}

	updated, err := s.billing.SwapSubscriptionPrice(ctx, subscriptionID, current.Items.Data[0].ID, priceID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ActivateSubscription(ctx, userID, newPlan, updated.ID); err != nil {
		return nil, fmt.Errorf("failed to persist plan change for %s: %w", userID, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("plan_type", newPlan).
		Str("subscription_id", updated.ID).
		Msg("subscription plan changed")
	return updated, nil
}

// Unsubscribe schedules cancellation at period end with the provider and
// clears the local subscription fields immediately.
func (s *Service) Unsubscribe(ctx context.Context, userID string) (*stripe.Subscription, error) {
	subscriptionID, err := s.subscriptionIDFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	canceled, err := s.billing.CancelAtPeriodEnd(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ClearSubscription(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear subscription for %s: %w", userID, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("subscription_id", subscriptionID).
		Msg("subscription set to cancel at period end")
	return canceled, nil
}

func (s *Service) subscriptionIDFor(ctx context.Context, userID string) (string, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return "", ErrNoProfile
	}
	if err != nil {
		return "", err
	}
	if p.StripeSubscriptionID == nil || *p.StripeSubscriptionID == "" {
		return "", ErrNoActiveSubscription
	}
	return *p.StripeSubscriptionID, nil
}
