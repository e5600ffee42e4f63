package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusChecker(t *testing.T) {
	var gotUserID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/check-subscription", r.URL.Path)
		gotUserID = r.URL.Query().Get("userId")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"subscriptionActive":true}`))
	}))
	defer srv.Close()

	c := NewHTTPStatusChecker(srv.URL+"/", time.Second)
	active, err := c.SubscriptionActive(context.Background(), "user 1&x")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, "user 1&x", gotUserID)
}

func TestHTTPStatusChecker_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPStatusChecker(srv.URL, time.Second).SubscriptionActive(context.Background(), "user_1")
	assert.Error(t, err)
}

func TestHTTPStatusChecker_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"subscriptionActive":true}`))
	}))
	defer srv.Close()

	_, err := NewHTTPStatusChecker(srv.URL, 20*time.Millisecond).SubscriptionActive(context.Background(), "user_1")
	assert.Error(t, err)
}
