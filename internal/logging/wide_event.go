package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// WideEvent is a single structured log entry describing one request.
// Handlers and middleware enrich it as the request flows through them.
type WideEvent struct {
	mu sync.Mutex

	TraceID   string    `json:"trace_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	HTTPMethod     string `json:"http_method,omitempty"`
	HTTPPath       string `json:"http_path,omitempty"`
	HTTPStatusCode int    `json:"http_status_code,omitempty"`
	HTTPDurationMs int64  `json:"http_duration_ms,omitempty"`

	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`

	// Billing context
	PlanType       string `json:"plan_type,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	StripeEventID  string `json:"stripe_event_id,omitempty"`
	StripeEvent    string `json:"stripe_event_type,omitempty"`
	WebhookOutcome string `json:"webhook_outcome,omitempty"`

	GateDecision string `json:"gate_decision,omitempty"`

	Error          string `json:"error,omitempty"`
	ErrorStage     string `json:"error_stage,omitempty"`
	PanicRecovered bool   `json:"panic_recovered,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// WithContext attaches a WideEvent to a context
func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

// FromContext retrieves the WideEvent from a context
func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func enrich(ctx context.Context, fn func(e *WideEvent)) {
	if event := FromContext(ctx); event != nil {
		event.mu.Lock()
		fn(event)
		event.mu.Unlock()
	}
}

func EnrichHTTP(ctx context.Context, method, path string) {
	enrich(ctx, func(e *WideEvent) {
		e.HTTPMethod = method
		e.HTTPPath = path
	})
}

func EnrichHTTPStatus(ctx context.Context, statusCode int) {
	enrich(ctx, func(e *WideEvent) { e.HTTPStatusCode = statusCode })
}

func EnrichHTTPDuration(ctx context.Context, duration time.Duration) {
	enrich(ctx, func(e *WideEvent) { e.HTTPDurationMs = duration.Milliseconds() })
}

func EnrichUser(ctx context.Context, userID, email string) {
	enrich(ctx, func(e *WideEvent) {
		e.UserID = userID
		e.UserEmail = email
	})
}

func EnrichSubscription(ctx context.Context, planType, subscriptionID string) {
	enrich(ctx, func(e *WideEvent) {
		if planType != "" {
			e.PlanType = planType
		}
		if subscriptionID != "" {
			e.SubscriptionID = subscriptionID
		}
	})
}

func EnrichWebhook(ctx context.Context, eventID, eventType string) {
	enrich(ctx, func(e *WideEvent) {
		e.StripeEventID = eventID
		e.StripeEvent = eventType
	})
}

func EnrichWebhookOutcome(ctx context.Context, outcome string) {
	enrich(ctx, func(e *WideEvent) { e.WebhookOutcome = outcome })
}

func EnrichGate(ctx context.Context, decision string) {
	enrich(ctx, func(e *WideEvent) { e.GateDecision = decision })
}

func EnrichError(ctx context.Context, err error, stage string) {
	if err == nil {
		return
	}
	enrich(ctx, func(e *WideEvent) {
		e.Error = err.Error()
		e.ErrorStage = stage
	})
}

func EnrichPanic(ctx context.Context) {
	enrich(ctx, func(e *WideEvent) { e.PanicRecovered = true })
}

func EnrichMetadata(ctx context.Context, key string, value any) {
	enrich(ctx, func(e *WideEvent) { e.Metadata[key] = value })
}

// Emit outputs the WideEvent as a structured log
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	event.mu.Lock()
	defer event.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("trace_id", event.TraceID),
		slog.String("event_type", event.EventType),
		slog.Time("timestamp", event.Timestamp),
	}

	strs := []struct{ key, value string }{
		{"http_method", event.HTTPMethod},
		{"http_path", event.HTTPPath},
		{"user_id", event.UserID},
		{"user_email", event.UserEmail},
		{"plan_type", event.PlanType},
		{"subscription_id", event.SubscriptionID},
		{"stripe_event_id", event.StripeEventID},
		{"stripe_event_type", event.StripeEvent},
		{"webhook_outcome", event.WebhookOutcome},
		{"gate_decision", event.GateDecision},
		{"error", event.Error},
		{"error_stage", event.ErrorStage},
	}
	for _, s := range strs {
		if s.value != "" {
			attrs = append(attrs, slog.String(s.key, s.value))
		}
	}

	if event.HTTPStatusCode != 0 {
		attrs = append(attrs, slog.Int("http_status_code", event.HTTPStatusCode))
	}
	if event.HTTPDurationMs != 0 {
		attrs = append(attrs, slog.Int64("http_duration_ms", event.HTTPDurationMs))
	}
	if event.PanicRecovered {
		attrs = append(attrs, slog.Bool("panic_recovered", event.PanicRecovered))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}

	level := slog.LevelInfo
	if event.Error != "" || event.PanicRecovered || event.HTTPStatusCode >= 500 {
		level = slog.LevelError
	}

	slog.LogAttrs(ctx, level, "wide_event", attrs...)
}
