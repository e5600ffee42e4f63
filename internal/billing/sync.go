package billing

import (
	"context"
	"fmt"

	"github.com/poibms/next-meal/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v84"
)

// SyncStripeCatalog fills the catalog's missing price ids, creating the Stripe
// product and recurring price for a plan when none exist yet.
func (b *Billing) SyncStripeCatalog(ctx context.Context, catalog *Catalog) error {
	missing := catalog.missingPrices()
	if len(missing) == 0 {
		return nil
	}

	products, err := b.listActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	prices, err := b.listActivePrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list prices: %w", err)
	}

	for _, plan := range missing {
		priceID, err := b.syncPlan(ctx, plan, products, prices)
		if err != nil {
			return fmt.Errorf("failed to sync plan %s: %w", plan.Interval, err)
		}
		catalog.SetPriceID(plan.Interval, priceID)
		log.Info().
			Str("plan_type", plan.Interval).
			Str("price_id", priceID).
			Msg("stripe plan synced")
	}

	return nil
}

func (b *Billing) listActiveProducts(ctx context.Context) ([]*stripe.Product, error) {
	var products []*stripe.Product
	for p, err := range b.sc.V1Products.List(ctx, &stripe.ProductListParams{Active: stripe.Bool(true)}) {
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (b *Billing) listActivePrices(ctx context.Context) ([]*stripe.Price, error) {
	var prices []*stripe.Price
	for p, err := range b.sc.V1Prices.List(ctx, &stripe.PriceListParams{Active: stripe.Bool(true)}) {
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func findProduct(products []*stripe.Product, planType string) string {
	for _, p := range products {
		if p.Metadata[config.StripeMetadataPlanType] == planType &&
			p.Metadata[config.StripeMetadataProductType] == config.StripeProductTypeMealPlan {
			return p.ID
		}
	}
	return ""
}

func findPrice(prices []*stripe.Price, productID string, plan Plan) string {
	for _, p := range prices {
		if p.Product == nil || p.Product.ID != productID || p.Recurring == nil {
			continue
		}
		if string(p.Recurring.Interval) == plan.Interval && p.UnitAmount == plan.Amount && string(p.Currency) == plan.Currency {
			return p.ID
		}
	}
	return ""
}

func (b *Billing) syncPlan(ctx context.Context, plan Plan, products []*stripe.Product, prices []*stripe.Price) (string, error) {
	productID := findProduct(products, plan.Interval)
	if productID == "" {
		id, err := b.createProduct(ctx, plan)
		if err != nil {
			return "", err
		}
		productID = id
	}

	if id := findPrice(prices, productID, plan); id != "" {
		return id, nil
	}
	return b.createPrice(ctx, plan, productID)
}

func (b *Billing) createProduct(ctx context.Context, plan Plan) (string, error) {
	params := &stripe.ProductCreateParams{
		Name:        stripe.String(fmt.Sprintf("NextMeal %s", plan.Name)),
		Description: stripe.String(fmt.Sprintf("AI meal plans, billed every %s", plan.Interval)),
		Metadata: map[string]string{
			config.StripeMetadataPlanType:    plan.Interval,
			config.StripeMetadataProductType: config.StripeProductTypeMealPlan,
		},
	}
	product, err := b.sc.V1Products.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return product.ID, nil
}

func (b *Billing) createPrice(ctx context.Context, plan Plan, productID string) (string, error) {
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(plan.Currency),
		UnitAmount: stripe.Int64(plan.Amount),
		Recurring: &stripe.PriceCreateRecurringParams{
			Interval: stripe.String(plan.Interval),
		},
		Metadata: map[string]string{
			config.StripeMetadataPlanType: plan.Interval,
		},
	}
	price, err := b.sc.V1Prices.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}
	return price.ID, nil
}
