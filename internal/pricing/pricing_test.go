package pricing

import (
	"testing"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

func testCatalog() *Catalog {
	return NewCatalog(
		Tier{Plan: types.PlanWeek, Price: 15000, Days: 7},
		Tier{Plan: types.PlanMonth, Price: 45000, Days: 30},
		Tier{Plan: types.PlanYear, Price: 350000, Days: 365},
	)
}

func TestExpiry(t *testing.T) {
	c := testCatalog()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		plan types.Plan
		want time.Time
	}{
		{types.PlanWeek, now.Add(7 * 24 * time.Hour)},
		{types.PlanMonth, now.Add(30 * 24 * time.Hour)},
		{types.PlanYear, now.Add(365 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			got, ok := c.Expiry(tt.plan, now)
			if !ok {
				t.Fatal("plan not found")
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnknownPlan(t *testing.T) {
	c := testCatalog()
	if _, ok := c.Price("lifetime"); ok {
		t.Error("expected unknown plan to be rejected")
	}
	if _, ok := c.Expiry("lifetime", time.Now()); ok {
		t.Error("expected unknown plan to have no expiry")
	}
}

func TestTiersOrder(t *testing.T) {
	tiers := testCatalog().Tiers()
	if len(tiers) != 3 {
		t.Fatalf("got %d tiers", len(tiers))
	}
	for i, p := range types.Plans {
		if tiers[i].Plan != p {
			t.Errorf("tier %d: got %s, want %s", i, tiers[i].Plan, p)
		}
	}
}
