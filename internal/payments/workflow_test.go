package payments_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/BatmanBruc/neural-bot/internal/payments"
	"github.com/BatmanBruc/neural-bot/internal/pricing"
	"github.com/BatmanBruc/neural-bot/store"
	"github.com/BatmanBruc/neural-bot/types"
)

const (
	adminID = int64(1000)
	buyerID = int64(7)
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mapCache struct {
	mu sync.Mutex
	m  map[string]types.Payment
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]types.Payment)} }

func (c *mapCache) GetPayment(_ context.Context, id string) (*types.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.m[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &p, nil
}

func (c *mapCache) SetPayment(_ context.Context, p *types.Payment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[p.PaymentID] = *p
	return nil
}

func (c *mapCache) DeletePayment(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
	return nil
}

func (c *mapCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[id]
	return ok
}

type fixture struct {
	store *store.MemoryStore
	subs  *ledger.Subscriptions
	cache *mapCache
	wf    *payments.Workflow
}

func newFixture(t *testing.T, opts ...payments.Option) *fixture {
	t.Helper()
	now := func() time.Time { return t0 }
	s := store.NewMemoryStore()
	catalog := pricing.NewCatalog(
		pricing.Tier{Plan: types.PlanWeek, Price: 15000, Days: 7},
		pricing.Tier{Plan: types.PlanMonth, Price: 45000, Days: 30},
		pricing.Tier{Plan: types.PlanYear, Price: 350000, Days: 365},
	)
	subs := ledger.NewSubscriptions(s, catalog, now)
	cache := newMapCache()
	opts = append([]payments.Option{payments.WithClock(now), payments.WithCache(cache)}, opts...)
	return &fixture{
		store: s,
		subs:  subs,
		cache: cache,
		wf:    payments.NewWorkflow(s, subs, catalog, adminID, opts...),
	}
}

func (f *fixture) awaiting(t *testing.T, plan types.Plan) *types.Payment {
	t.Helper()
	ctx := context.Background()
	p, err := f.wf.Create(ctx, buyerID, plan, types.MethodCard)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.wf.MarkPaid(ctx, buyerID, p.PaymentID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	return p
}

func TestConfirmWeekPlanExpiresSevenDaysLater(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.awaiting(t, types.PlanWeek)
	if p.Amount != 15000 {
		t.Errorf("amount: got %d, want 15000", p.Amount)
	}

	res, err := f.wf.Confirm(ctx, adminID, p.PaymentID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if want := t0.AddDate(0, 0, 7); !res.ExpiresAt.Equal(want) {
		t.Errorf("expiry: got %v, want %v", res.ExpiresAt, want)
	}
	if res.UserID != buyerID || res.Plan != types.PlanWeek || res.Amount != 15000 {
		t.Errorf("unexpected confirmation %+v", res)
	}
	active, err := f.subs.IsActive(ctx, buyerID)
	if err != nil || !active {
		t.Fatalf("IsActive: %v %v", active, err)
	}
	got, _ := f.store.GetPayment(ctx, p.PaymentID)
	if got.Status != types.PaymentConfirmed {
		t.Errorf("status: got %s", got.Status)
	}
	if f.cache.has(p.PaymentID) {
		t.Error("confirmed payment still cached")
	}
}

func TestNonAdminConfirmCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.awaiting(t, types.PlanMonth)

	for _, caller := range []int64{buyerID, 0, adminID + 1} {
		if _, err := f.wf.Confirm(ctx, caller, p.PaymentID); !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("caller %d: got %v, want ErrForbidden", caller, err)
		}
		if _, err := f.wf.Reject(ctx, caller, p.PaymentID); !errors.Is(err, types.ErrForbidden) {
			t.Fatalf("caller %d reject: got %v, want ErrForbidden", caller, err)
		}
	}
	if n := len(f.store.Subscriptions()); n != 0 {
		t.Fatalf("subscriptions created: %d", n)
	}
	got, _ := f.store.GetPayment(ctx, p.PaymentID)
	if got.Status != types.PaymentAwaitingConfirmation {
		t.Errorf("status changed to %s", got.Status)
	}
	if _, err := f.wf.Confirm(ctx, buyerID, "UNKNOWN1"); !errors.Is(err, types.ErrForbidden) {
		t.Errorf("unknown id by non-admin: got %v, want ErrForbidden", err)
	}
}

func TestMarkPaidRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.wf.Create(ctx, buyerID, types.PlanWeek, types.MethodClick)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.wf.MarkPaid(ctx, buyerID+1, p.PaymentID); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	if _, err := f.wf.MarkPaid(ctx, buyerID, "NOPE0000"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	got, _ := f.store.GetPayment(ctx, p.PaymentID)
	if got.Status != types.PaymentCreated {
		t.Errorf("status changed to %s", got.Status)
	}
}

func TestTerminalPaymentsAreImmutable(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t)
		p := f.awaiting(t, types.PlanWeek)
		if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("second confirm: got %v", err)
		}
		if _, err := f.wf.Reject(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("reject after confirm: got %v", err)
		}
		if _, err := f.wf.MarkPaid(ctx, buyerID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("mark paid after confirm: got %v", err)
		}
		if n := len(f.store.Subscriptions()); n != 1 {
			t.Errorf("subscriptions: got %d, want 1", n)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		f := newFixture(t)
		p := f.awaiting(t, types.PlanWeek)
		user, err := f.wf.Reject(ctx, adminID, p.PaymentID)
		if err != nil {
			t.Fatal(err)
		}
		if user != buyerID {
			t.Errorf("reject returned user %d", user)
		}
		if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("confirm after reject: got %v", err)
		}
		if _, err := f.wf.Reject(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
			t.Errorf("second reject: got %v", err)
		}
		if n := len(f.store.Subscriptions()); n != 0 {
			t.Errorf("subscriptions: got %d, want 0", n)
		}
	})
}

func TestConfirmRequiresAwaitingConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.wf.Create(ctx, buyerID, types.PlanWeek, types.MethodPayme)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("confirm before mark paid: got %v", err)
	}
	if _, err := f.wf.Reject(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("reject before mark paid: got %v", err)
	}
	if _, err := f.wf.Confirm(ctx, adminID, "MISSING0"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
}

func TestConcurrentConfirmHasOneOutcome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.awaiting(t, types.PlanYear)

	var confirmed, rejected, resolved atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.wf.Confirm(ctx, adminID, p.PaymentID)
				if err == nil {
					confirmed.Add(1)
				}
			} else {
				_, err = f.wf.Reject(ctx, adminID, p.PaymentID)
				if err == nil {
					rejected.Add(1)
				}
			}
			if err != nil {
				if !types.IsResolved(err) {
					t.Errorf("unexpected error: %v", err)
				}
				resolved.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if confirmed.Load()+rejected.Load() != 1 {
		t.Fatalf("outcomes: confirmed=%d rejected=%d", confirmed.Load(), rejected.Load())
	}
	if resolved.Load() != 39 {
		t.Errorf("resolved notices: got %d, want 39", resolved.Load())
	}
	if n := len(f.store.Subscriptions()); int32(n) != confirmed.Load() {
		t.Errorf("subscriptions: got %d, confirmed %d", n, confirmed.Load())
	}
}

func TestCreateRetriesOnIDCollision(t *testing.T) {
	ctx := context.Background()
	ids := []string{"AAAA0001", "AAAA0001", "BBBB0002"}
	var n atomic.Int32
	gen := func() string { return ids[int(n.Add(1)-1)%len(ids)] }
	f := newFixture(t, payments.WithIDGenerator(gen))

	first, err := f.wf.Create(ctx, buyerID, types.PlanWeek, types.MethodCard)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.wf.Create(ctx, buyerID, types.PlanWeek, types.MethodCard)
	if err != nil {
		t.Fatal(err)
	}
	if first.PaymentID != "AAAA0001" || second.PaymentID != "BBBB0002" {
		t.Fatalf("ids: %s %s", first.PaymentID, second.PaymentID)
	}
}

func TestCreateRejectsUnknownPlanOrMethod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tests := []struct {
		name   string
		plan   types.Plan
		method types.Method
	}{
		{"plan", types.Plan("decade"), types.MethodCard},
		{"method", types.PlanWeek, types.Method("cash")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.wf.Create(ctx, buyerID, tt.plan, tt.method); !errors.Is(err, types.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}
	pending, _ := f.store.ListPayments(ctx, types.PaymentCreated)
	if len(pending) != 0 {
		t.Errorf("payments persisted: %d", len(pending))
	}
}

func TestWarmRebuildsCacheAfterRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.awaiting(t, types.PlanMonth)
	done := f.awaiting(t, types.PlanWeek)
	if _, err := f.wf.Confirm(ctx, adminID, done.PaymentID); err != nil {
		t.Fatal(err)
	}

	cache := newMapCache()
	catalog := pricing.NewCatalog(pricing.Tier{Plan: types.PlanMonth, Price: 45000, Days: 30})
	restarted := payments.NewWorkflow(f.store, ledger.NewSubscriptions(f.store, catalog, func() time.Time { return t0 }),
		catalog, adminID, payments.WithCache(cache), payments.WithClock(func() time.Time { return t0 }))

	n, err := restarted.Warm(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !cache.has(p.PaymentID) || cache.has(done.PaymentID) {
		t.Fatalf("warm loaded %d, cached pending=%v confirmed=%v", n, cache.has(p.PaymentID), cache.has(done.PaymentID))
	}
	if _, err := restarted.Confirm(ctx, adminID, p.PaymentID); err != nil {
		t.Fatalf("Confirm after restart: %v", err)
	}
}

func TestStaleCacheEntryDoesNotResurrectPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.awaiting(t, types.PlanWeek)
	stale, _ := f.cache.GetPayment(ctx, p.PaymentID)

	if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); err != nil {
		t.Fatal(err)
	}
	_ = f.cache.SetPayment(ctx, stale)

	if _, err := f.wf.Confirm(ctx, adminID, p.PaymentID); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
	if f.cache.has(p.PaymentID) {
		t.Error("stale entry not evicted")
	}
	if n := len(f.store.Subscriptions()); n != 1 {
		t.Errorf("subscriptions: got %d, want 1", n)
	}
}

func TestGetFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.wf.Create(ctx, buyerID, types.PlanWeek, types.MethodCard)
	if err != nil {
		t.Fatal(err)
	}
	_ = f.cache.DeletePayment(ctx, p.PaymentID)

	got, err := f.wf.Get(ctx, p.PaymentID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != buyerID || !f.cache.has(p.PaymentID) {
		t.Errorf("read-through failed: %+v cached=%v", got, f.cache.has(p.PaymentID))
	}
}

func TestNewPaymentIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := payments.NewPaymentID()
		if !re.MatchString(id) {
			t.Fatalf("bad id %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("too many duplicates: %d unique of 100", len(seen))
	}
}

func TestInstructionsCopyConfiguredDestinations(t *testing.T) {
	f := newFixture(t, payments.WithDestinations(payments.Destinations{
		ClickServiceID: "12345",
		CardNumber:     "8600 0000 0000 0000",
		CardBank:       "Kapitalbank",
	}))
	card := f.wf.Instructions(types.MethodCard, 45000, "ABCD1234")
	if len(card.Details) != 2 || card.Details[0] != "8600 0000 0000 0000" || card.Details[1] != "Kapitalbank" {
		t.Errorf("card details: %v", card.Details)
	}
	click := f.wf.Instructions(types.MethodClick, 45000, "ABCD1234")
	if len(click.Details) != 2 || click.Details[1] != "12345" {
		t.Errorf("click details: %v", click.Details)
	}
	if card.PaymentID != "ABCD1234" || card.Amount != 45000 {
		t.Errorf("instruction: %+v", card)
	}
}
