package billing

import "sync"

const (
	PlanWeek  = "week"
	PlanMonth = "month"
	PlanYear  = "year"
)

// PlanOrder defines the display ordering of plans.
var PlanOrder = []string{PlanWeek, PlanMonth, PlanYear}

// Plan is a subscription offering billed on a fixed interval.
type Plan struct {
	Interval string `json:"interval"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	PriceID  string `json:"priceId"`
}

var defaultPlans = map[string]Plan{
	PlanWeek:  {Interval: PlanWeek, Name: "Weekly Plan", Amount: 999, Currency: "usd"},
	PlanMonth: {Interval: PlanMonth, Name: "Monthly Plan", Amount: 3999, Currency: "usd"},
	PlanYear:  {Interval: PlanYear, Name: "Yearly Plan", Amount: 29999, Currency: "usd"},
}

func IsValidPlanType(planType string) bool {
	_, ok := defaultPlans[planType]
	return ok
}

// Catalog maps plan types to Stripe prices.
type Catalog struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewCatalog builds the catalog, taking price ids for known plan types from priceIDs.
func NewCatalog(priceIDs map[string]string) *Catalog {
	plans := make(map[string]Plan, len(defaultPlans))
	for id, p := range defaultPlans {
		p.PriceID = priceIDs[id]
		plans[id] = p
	}
	return &Catalog{plans: plans}
}

// PriceID returns the Stripe price for planType. It reports false for unknown
// plan types and for plans whose price has not been configured.
func (c *Catalog) PriceID(planType string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.plans[planType]
	if !ok || p.PriceID == "" {
		return "", false
	}
	return p.PriceID, true
}

func (c *Catalog) Plans() []Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()

	plans := make([]Plan, 0, len(PlanOrder))
	for _, id := range PlanOrder {
		plans = append(plans, c.plans[id])
	}
	return plans
}

func (c *Catalog) SetPriceID(planType, priceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.plans[planType]; ok {
		p.PriceID = priceID
		c.plans[planType] = p
	}
}

func (c *Catalog) missingPrices() []Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []Plan
	for _, id := range PlanOrder {
		if p := c.plans[id]; p.PriceID == "" {
			missing = append(missing, p)
		}
	}
	return missing
}
