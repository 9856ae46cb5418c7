package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/BatmanBruc/neural-bot/internal/pricing"
	"github.com/BatmanBruc/neural-bot/types"
)

type Subscriptions struct {
	store   types.SubscriptionStore
	catalog *pricing.Catalog
	now     Clock
}

func NewSubscriptions(store types.SubscriptionStore, catalog *pricing.Catalog, now Clock) *Subscriptions {
	if now == nil {
		now = time.Now
	}
	return &Subscriptions{store: store, catalog: catalog, now: now}
}

func (s *Subscriptions) IsActive(ctx context.Context, userID int64) (bool, error) {
	exp, err := s.ActiveExpiry(ctx, userID)
	if err != nil {
		return false, err
	}
	return exp != nil, nil
}

// ActiveExpiry returns the latest expiry among subscriptions still running, or nil.
func (s *Subscriptions) ActiveExpiry(ctx context.Context, userID int64) (*time.Time, error) {
	return s.store.LatestExpiry(ctx, userID, s.now())
}

// Window returns the start and expiry of a subscription bought for plan right now.
func (s *Subscriptions) Window(plan types.Plan) (start, expires time.Time, err error) {
	start = s.now()
	expires, ok := s.catalog.Expiry(plan, start)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("plan %q: %w", plan, types.ErrInvalidInput)
	}
	return start, expires, nil
}

// Create appends a subscription row and returns its expiry.
func (s *Subscriptions) Create(ctx context.Context, userID int64, plan types.Plan, paymentID string, amount int64) (time.Time, error) {
	start, expires, err := s.Window(plan)
	if err != nil {
		return time.Time{}, err
	}
	err = s.store.CreateSubscription(ctx, types.Subscription{
		UserID:    userID,
		Plan:      plan,
		StartedAt: start,
		ExpiresAt: expires,
		PaymentID: paymentID,
		Amount:    amount,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("create subscription for user %d: %w", userID, err)
	}
	return expires, nil
}
