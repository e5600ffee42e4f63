package auth

import (
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

func Configure(apiKey string) {
	usermanagement.SetAPIKey(apiKey)
}
