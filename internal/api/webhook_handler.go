package api

import (
	"context"
	"io"
	"net/http"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/webhook"
)

const maxWebhookBodyBytes = 1 << 16

type DeliveryHandler interface {
	HandleDelivery(ctx context.Context, payload []byte, signature string) (webhook.Outcome, error)
}

type WebhookHandler struct {
	reconciler DeliveryHandler
}

func NewWebhookHandler(reconciler DeliveryHandler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		apierror.Write(w, http.StatusBadRequest, apierror.CodeBadRequest, "Failed to read body")
		return
	}

	if _, err := h.reconciler.HandleDelivery(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, r, err, "webhook")
		return
	}
	writeJSON(w, struct{}{})
}
