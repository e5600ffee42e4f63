package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/poibms/next-meal/internal/billing"
	"github.com/poibms/next-meal/internal/config"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/metrics"
	"github.com/poibms/next-meal/internal/profile"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v84"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnhandled        Outcome = "unhandled"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeFailed           Outcome = "failed"
	OutcomeInvalidSignature Outcome = "invalid_signature"
)

type Verifier interface {
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}

// Transition resolves the profile an event refers to and applies at most one
// store write. A returned error means the store could not be updated.
type Transition func(ctx context.Context, store profile.Repository, event *stripe.Event) (Outcome, error)

// DefaultTransitions maps each handled event type to its profile transition.
func DefaultTransitions() map[stripe.EventType]Transition {
	return map[stripe.EventType]Transition{
		stripe.EventTypeCheckoutSessionCompleted:    checkoutCompleted,
		stripe.EventTypeInvoicePaymentFailed:        invoicePaymentFailed,
		stripe.EventTypeCustomerSubscriptionDeleted: subscriptionDeleted,
	}
}

type Reconciler struct {
	verifier    Verifier
	store       Store
	recorder    metrics.Recorder
	transitions map[stripe.EventType]Transition
}

func NewReconciler(verifier Verifier, store Store, recorder metrics.Recorder) *Reconciler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Reconciler{
		verifier:    verifier,
		store:       store,
		recorder:    recorder,
		transitions: DefaultTransitions(),
	}
}

// HandleDelivery verifies, deduplicates and applies one webhook delivery.
// Nothing is written unless the signature is valid. The claim and the profile
// write commit together, so a failed write leaves the event unclaimed and the
// provider's redelivery is processed.
func (r *Reconciler) HandleDelivery(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	event, err := r.verifier.VerifyWebhookSignature(payload, signature)
	if err != nil {
		r.finish(ctx, "unknown", OutcomeInvalidSignature)
		return OutcomeInvalidSignature, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	logging.EnrichWebhook(ctx, event.ID, eventType)

	var outcome Outcome
	err = r.store.RunInTx(ctx, func(ctx context.Context, events EventLog, profiles profile.Repository) error {
		claimed, err := events.Claim(ctx, event.ID, eventType)
		if err != nil {
			return err
		}
		if !claimed {
			log.Info().Str("event_id", event.ID).Str("event_type", eventType).Msg("duplicate webhook delivery")
			outcome = OutcomeDuplicate
			return nil
		}

		transition, ok := r.transitions[event.Type]
		if !ok {
			log.Debug().Str("event_id", event.ID).Str("event_type", eventType).Msg("unhandled event type")
			outcome = OutcomeUnhandled
			return nil
		}

		outcome, err = transition(ctx, profiles, event)
		return err
	})
	if err != nil {
		r.finish(ctx, eventType, OutcomeFailed)
		return OutcomeFailed, fmt.Errorf("%s %s: %w", eventType, event.ID, err)
	}

	r.finish(ctx, eventType, outcome)
	return outcome, nil
}

func (r *Reconciler) finish(ctx context.Context, eventType string, outcome Outcome) {
	logging.EnrichWebhookOutcome(ctx, string(outcome))
	r.recorder.RecordWebhookEvent(eventType, string(outcome))
}

func checkoutCompleted(ctx context.Context, store profile.Repository, event *stripe.Event) (Outcome, error) {
	session, err := parseEventData[checkoutSession](event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to parse checkout session")
		return OutcomeIgnored, nil
	}

	userID := session.Metadata[config.CheckoutMetadataUserID]
	if userID == "" {
		log.Warn().Str("session_id", session.ID).Msg("checkout session has no user id")
		return OutcomeIgnored, nil
	}
	subscriptionID := string(session.Subscription)
	if subscriptionID == "" {
		log.Warn().Str("session_id", session.ID).Msg("checkout session has no subscription")
		return OutcomeIgnored, nil
	}
	planType := session.Metadata[config.CheckoutMetadataPlanType]
	if !billing.IsValidPlanType(planType) {
		log.Warn().Str("session_id", session.ID).Str("plan_type", planType).Msg("checkout session has no valid plan type")
		return OutcomeIgnored, nil
	}

	if err := store.ActivateSubscription(ctx, userID, planType, subscriptionID); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to activate subscription for %s: %w", userID, err)
	}

	logging.EnrichUser(ctx, userID, "")
	logging.EnrichSubscription(ctx, planType, subscriptionID)
	log.Info().
		Str("user_id", userID).
		Str("plan_type", planType).
		Str("subscription_id", subscriptionID).
		Msg("subscription activated")
	return OutcomeApplied, nil
}

func invoicePaymentFailed(ctx context.Context, store profile.Repository, event *stripe.Event) (Outcome, error) {
	invoice, err := parseEventData[invoiceEvent](event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to parse invoice")
		return OutcomeIgnored, nil
	}

	subscriptionID := invoice.SubscriptionID()
	if subscriptionID == "" {
		return OutcomeIgnored, nil
	}

	return updateBySubscription(ctx, store, subscriptionID, func(userID string) error {
		return store.SetSubscriptionActive(ctx, userID, false)
	}, "subscription deactivated after failed payment")
}

func subscriptionDeleted(ctx context.Context, store profile.Repository, event *stripe.Event) (Outcome, error) {
	sub, err := parseEventData[subscriptionEvent](event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to parse subscription")
		return OutcomeIgnored, nil
	}
	if sub.ID == "" {
		return OutcomeIgnored, nil
	}

	return updateBySubscription(ctx, store, sub.ID, func(userID string) error {
		return store.ClearSubscriptionID(ctx, userID)
	}, "subscription canceled")
}

func updateBySubscription(ctx context.Context, store profile.Repository, subscriptionID string, apply func(userID string) error, msg string) (Outcome, error) {
	p, err := store.GetByStripeSubscriptionID(ctx, subscriptionID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		log.Warn().Str("subscription_id", subscriptionID).Msg("no profile for subscription")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to look up profile for subscription %s: %w", subscriptionID, err)
	}

	if err := apply(p.UserID); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return OutcomeIgnored, nil
		}
		return OutcomeFailed, fmt.Errorf("failed to update profile %s: %w", p.UserID, err)
	}

	logging.EnrichUser(ctx, p.UserID, p.Email)
	logging.EnrichSubscription(ctx, "", subscriptionID)
	log.Info().Str("user_id", p.UserID).Str("subscription_id", subscriptionID).Msg(msg)
	return OutcomeApplied, nil
}
