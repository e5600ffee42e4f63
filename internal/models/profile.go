package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile is the per-user subscription record.
type Profile struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	SubscriptionActive   bool      `json:"subscriptionActive"`
	SubscriptionTier     *string   `json:"subscriptionTier"`
	StripeSubscriptionID *string   `json:"stripeSubscriptionId"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type ProfileDB struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID               string    `bun:"user_id,pk"`
	Email                string    `bun:"email,notnull,default:''"`
	SubscriptionActive   bool      `bun:"subscription_active,notnull,default:false"`
	SubscriptionTier     *string   `bun:"subscription_tier"`
	StripeSubscriptionID *string   `bun:"stripe_subscription_id,unique"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (p *ProfileDB) ToProfile() *Profile {
	return &Profile{
		UserID:               p.UserID,
		Email:                p.Email,
		SubscriptionActive:   p.SubscriptionActive,
		SubscriptionTier:     p.SubscriptionTier,
		StripeSubscriptionID: p.StripeSubscriptionID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
