package auth

const (
	ACCESS_TOKEN_COOKIE_NAME = "accessToken"

	DefaultRedirectAfterLogin = "/subscribe"
	DefaultRedirectAfterOut   = "/"
)
