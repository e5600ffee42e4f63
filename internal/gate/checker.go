package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type StatusChecker interface {
	SubscriptionActive(ctx context.Context, userID string) (bool, error)
}

// HTTPStatusChecker asks the service's own check-subscription endpoint.
type HTTPStatusChecker struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStatusChecker(baseURL string, timeout time.Duration) *HTTPStatusChecker {
	return &HTTPStatusChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type checkSubscriptionResponse struct {
	SubscriptionActive bool `json:"subscriptionActive"`
}

func (c *HTTPStatusChecker) SubscriptionActive(ctx context.Context, userID string) (bool, error) {
	endpoint := c.baseURL + "/api/check-subscription?userId=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("check-subscription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("check-subscription returned status %d", resp.StatusCode)
	}

	var body checkSubscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode check-subscription response: %w", err)
	}
	return body.SubscriptionActive, nil
}
