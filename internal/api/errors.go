package api

import (
	"errors"
	"net/http"

	"github.com/poibms/next-meal/internal/apierror"
	"github.com/poibms/next-meal/internal/logging"
	"github.com/poibms/next-meal/internal/mealplan"
	"github.com/poibms/next-meal/internal/profile"
	"github.com/poibms/next-meal/internal/subscription"
	"github.com/poibms/next-meal/internal/webhook"
)

var errInvalidBody = errors.New("invalid request body")

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means the error text is returned
}

var errorMappings = []errorMapping{
	{errInvalidBody, http.StatusBadRequest, apierror.CodeBadRequest, "Invalid request body"},
	{subscription.ErrMissingField, http.StatusBadRequest, apierror.CodeBadRequest, ""},
	{subscription.ErrInvalidPlan, http.StatusBadRequest, apierror.CodeInvalidPlan, "Invalid plan type"},
	{subscription.ErrNoProfile, http.StatusNotFound, apierror.CodeNoProfile, "No profile found"},
	{subscription.ErrNoActiveSubscription, http.StatusConflict, apierror.CodeNoSubscription, "No active subscription found"},
	{profile.ErrMissingUserID, http.StatusBadRequest, apierror.CodeBadRequest, "User ID is required"},
	{mealplan.ErrInvalidRequest, http.StatusBadRequest, apierror.CodeBadRequest, ""},
	{webhook.ErrInvalidSignature, http.StatusBadRequest, apierror.CodeInvalidSignature, "Invalid signature"},
}

// writeError maps err onto the shared error body. Anything unmapped is a 500
// whose detail only reaches the wide event.
func writeError(w http.ResponseWriter, r *http.Request, err error, stage string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		logging.EnrichMetadata(r.Context(), "client_error", err.Error())
		apierror.Write(w, m.status, m.code, message)
		return
	}

	logging.EnrichError(r.Context(), err, stage)
	apierror.Internal(w)
}
