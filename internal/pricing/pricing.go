package pricing

import (
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

type Tier struct {
	Plan  types.Plan
	Price int64
	Days  int
}

// Catalog maps every plan to its price and duration. It is the only place a
// plan turns into a subscription length.
type Catalog struct {
	tiers map[types.Plan]Tier
}

func NewCatalog(tiers ...Tier) *Catalog {
	c := &Catalog{tiers: make(map[types.Plan]Tier, len(tiers))}
	for _, t := range tiers {
		c.tiers[t.Plan] = t
	}
	return c
}

func (c *Catalog) Tier(plan types.Plan) (Tier, bool) {
	t, ok := c.tiers[plan]
	return t, ok
}

func (c *Catalog) Price(plan types.Plan) (int64, bool) {
	t, ok := c.tiers[plan]
	return t.Price, ok
}

func (c *Catalog) Duration(plan types.Plan) (time.Duration, bool) {
	t, ok := c.tiers[plan]
	if !ok {
		return 0, false
	}
	return time.Duration(t.Days) * 24 * time.Hour, true
}

// Expiry is now plus the plan duration.
func (c *Catalog) Expiry(plan types.Plan, now time.Time) (time.Time, bool) {
	d, ok := c.Duration(plan)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(d), true
}

// Tiers returns tiers in display order.
func (c *Catalog) Tiers() []Tier {
	out := make([]Tier, 0, len(c.tiers))
	for _, p := range types.Plans {
		if t, ok := c.tiers[p]; ok {
			out = append(out, t)
		}
	}
	return out
}
