package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/poibms/next-meal/internal/models"
	"github.com/uptrace/bun"
)

var ErrProfileNotFound = errors.New("profile not found")

type Repository interface {
	InitializeDatabase(ctx context.Context) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error)
	GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error)
	// ActivateSubscription upserts the profile as subscribed to tier under subscriptionID.
	ActivateSubscription(ctx context.Context, userID, tier, subscriptionID string) error
	SetSubscriptionActive(ctx context.Context, userID string, active bool) error
	// ClearSubscriptionID deactivates the profile and drops its subscription id. The tier is kept.
	ClearSubscriptionID(ctx context.Context, userID string) error
	// ClearSubscription resets every subscription field.
	ClearSubscription(ctx context.Context, userID string) error
}

type ProfileRepository struct {
	db bun.IDB
}

// NewProfileRepository accepts a *bun.DB or a bun.Tx.
func NewProfileRepository(db bun.IDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) InitializeDatabase(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*models.ProfileDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	_, err = r.db.NewCreateIndex().
		Model((*models.ProfileDB)(nil)).
		Index("idx_profiles_email").
		Column("email").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profileDB := new(models.ProfileDB)
	err := r.db.NewSelect().
		Model(profileDB).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return profileDB.ToProfile(), nil
}

func (r *ProfileRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*models.Profile, error) {
	profileDB := new(models.ProfileDB)
	err := r.db.NewSelect().
		Model(profileDB).
		Where("stripe_subscription_id = ?", subscriptionID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return profileDB.ToProfile(), nil
}

func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error) {
	now := time.Now()
	profileDB := &models.ProfileDB{
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.NewInsert().
		Model(profileDB).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

func (r *ProfileRepository) ActivateSubscription(ctx context.Context, userID, tier, subscriptionID string) error {
	now := time.Now()
	profileDB := &models.ProfileDB{
		UserID:               userID,
		SubscriptionActive:   true,
		SubscriptionTier:     &tier,
		StripeSubscriptionID: &subscriptionID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	_, err := r.db.NewInsert().
		Model(profileDB).
		On("CONFLICT (user_id) DO UPDATE").
		Set("subscription_active = EXCLUDED.subscription_active").
		Set("subscription_tier = EXCLUDED.subscription_tier").
		Set("stripe_subscription_id = EXCLUDED.stripe_subscription_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *ProfileRepository) SetSubscriptionActive(ctx context.Context, userID string, active bool) error {
	res, err := r.db.NewUpdate().
		Model((*models.ProfileDB)(nil)).
		Set("subscription_active = ?", active).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return affected(res, err)
}

func (r *ProfileRepository) ClearSubscriptionID(ctx context.Context, userID string) error {
	res, err := r.db.NewUpdate().
		Model((*models.ProfileDB)(nil)).
		Set("subscription_active = ?", false).
		Set("stripe_subscription_id = NULL").
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return affected(res, err)
}

func (r *ProfileRepository) ClearSubscription(ctx context.Context, userID string) error {
	res, err := r.db.NewUpdate().
		Model((*models.ProfileDB)(nil)).
		Set("subscription_active = ?", false).
		Set("subscription_tier = NULL").
		Set("stripe_subscription_id = NULL").
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return affected(res, err)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProfileNotFound
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
