package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_ProvisionsEmptyProfile(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewProfileService(repo)

	p, err := svc.GetOrCreate(context.Background(), "user_1", "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, "user_1", p.UserID)
	assert.False(t, p.SubscriptionActive)
	assert.Nil(t, p.SubscriptionTier)
	assert.Nil(t, p.StripeSubscriptionID)
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewProfileService(repo)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, "user_1", "a@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.ActivateSubscription(ctx, "user_1", "month", "sub_1"))

	p, err := svc.GetOrCreate(ctx, "user_1", "a@example.com")
	require.NoError(t, err)
	assert.True(t, p.SubscriptionActive)
	assert.Equal(t, "month", *p.SubscriptionTier)
}

func TestGetOrCreate_RequiresUserID(t *testing.T) {
	svc := NewProfileService(NewMemoryRepository())

	_, err := svc.GetOrCreate(context.Background(), "", "a@example.com")
	assert.ErrorIs(t, err, ErrMissingUserID)
}
