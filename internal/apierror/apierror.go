// Package apierror writes the JSON error body shared by every endpoint.
package apierror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	CodeBadRequest           = "bad_request"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeConflict             = "conflict"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
	CodeInvalidSignature     = "invalid_signature"
	CodeInvalidPlan          = "invalid_plan"
	CodeNoProfile            = "no_profile"
	CodeNoSubscription       = "no_active_subscription"
	CodeSubscriptionRequired = "subscription_required"
)

type Body struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func Write(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(Body{
		Error: message,
		Code:  code,
	}); err != nil {
		slog.Error("failed to write JSON error", slog.String("error", err.Error()))
	}
}

func Unauthorized(w http.ResponseWriter) {
	Write(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
}
