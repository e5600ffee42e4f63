package subscription

import "errors"

var (
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidPlan          = errors.New("invalid plan type")
	ErrNoProfile            = errors.New("no profile found")
	ErrNoActiveSubscription = errors.New("no active subscription found")
)
