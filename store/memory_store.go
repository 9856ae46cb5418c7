package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

// MemoryStore is an in-process implementation of the ledger stores. A single
// mutex serializes every mutation, which gives it the same atomicity as the
// conditional SQL statements of PostgresStore.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int64]*types.User
	usage         map[int64]map[string]int
	subscriptions []types.Subscription
	payments      map[string]*types.Payment
	nextSubID     int64
	now           func() time.Time
}

var (
	_ types.UserStore         = (*MemoryStore)(nil)
	_ types.QuotaStore        = (*MemoryStore)(nil)
	_ types.SubscriptionStore = (*MemoryStore)(nil)
	_ types.PaymentStore      = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*types.User),
		usage:    make(map[int64]map[string]int),
		payments: make(map[string]*types.Payment),
		now:      time.Now,
	}
}

// WithClock overrides the registration timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) RegisterUser(_ context.Context, u types.NewUser) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.UserID]; exists {
		return false, false, nil
	}
	user := &types.User{
		UserID:       u.UserID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		RegisteredAt: s.now(),
	}
	s.users[u.UserID] = user

	if u.ReferrerID == 0 || u.ReferrerID == u.UserID {
		return true, false, nil
	}
	referrer, ok := s.users[u.ReferrerID]
	if !ok {
		return true, false, nil
	}
	id := u.ReferrerID
	user.ReferrerID = &id
	if u.Bonus <= 0 {
		return true, false, nil
	}
	referrer.BonusQueries += u.Bonus
	return true, true, nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID int64) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CountReferrals(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.ReferrerID != nil && *u.ReferrerID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SetBanned(_ context.Context, userID int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return types.ErrNotFound
	}
	u.IsBanned = banned
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, today string, dayStart, now time.Time) (*types.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &types.Stats{TotalUsers: len(s.users)}
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	for _, u := range s.users {
		if !u.RegisteredAt.Before(dayStart) {
			st.NewToday++
		}
		if u.RegisteredAt.After(weekAgo) {
			st.NewWeek++
		}
	}
	premium := make(map[int64]struct{})
	for _, sub := range s.subscriptions {
		if sub.ExpiresAt.After(now) {
			premium[sub.UserID] = struct{}{}
		}
		if sub.StartedAt.After(monthAgo) {
			st.MonthlyRevenue += sub.Amount
		}
	}
	st.PremiumUsers = len(premium)
	for _, days := range s.usage {
		st.TodayQueries += days[today]
	}
	return st, nil
}

func (s *MemoryStore) UsageOn(_ context.Context, userID int64, day string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[userID][day], nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, userID int64, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.usage[userID]
	if !ok {
		days = make(map[string]int)
		s.usage[userID] = days
	}
	days[day]++
	if u, ok := s.users[userID]; ok {
		u.TotalQueries++
	}
	return nil
}

func (s *MemoryStore) ConsumeBonus(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.BonusQueries <= 0 {
		return false, nil
	}
	u.BonusQueries--
	return true, nil
}

func (s *MemoryStore) RefundBonus(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.BonusQueries++
	}
	return nil
}

// AddBonus credits a user directly. Used for seeding.
func (s *MemoryStore) AddBonus(userID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.BonusQueries += n
	}
}

func (s *MemoryStore) CreateSubscription(_ context.Context, sub types.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendSubscriptionLocked(&sub)
	return nil
}

func (s *MemoryStore) appendSubscriptionLocked(sub *types.Subscription) {
	s.nextSubID++
	sub.ID = s.nextSubID
	s.subscriptions = append(s.subscriptions, *sub)
}

func (s *MemoryStore) LatestExpiry(_ context.Context, userID int64, now time.Time) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *time.Time
	for i := range s.subscriptions {
		sub := s.subscriptions[i]
		if sub.UserID != userID || !sub.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || sub.ExpiresAt.After(*latest) {
			t := sub.ExpiresAt
			latest = &t
		}
	}
	return latest, nil
}

// Subscriptions returns a copy of the subscription log.
func (s *MemoryStore) Subscriptions() []types.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

func (s *MemoryStore) CreatePayment(_ context.Context, p types.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[p.PaymentID]; exists {
		return false, nil
	}
	p.UpdatedAt = p.CreatedAt
	s.payments[p.PaymentID] = &p
	return true, nil
}

func (s *MemoryStore) GetPayment(_ context.Context, paymentID string) (*types.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) TransitionPayment(_ context.Context, paymentID string, from, to types.PaymentStatus, now time.Time) (*types.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, types.ErrNotFound
	}
	if p.Status != from {
		return nil, types.ErrInvalidState
	}
	p.Status = to
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ConfirmPayment(_ context.Context, paymentID string, startedAt, expiresAt time.Time) (*types.Payment, *types.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, nil, types.ErrNotFound
	}
	if p.Status != types.PaymentAwaitingConfirmation {
		return nil, nil, types.ErrInvalidState
	}
	sub := &types.Subscription{
		UserID:    p.UserID,
		Plan:      p.Plan,
		StartedAt: startedAt,
		ExpiresAt: expiresAt,
		PaymentID: p.PaymentID,
		Amount:    p.Amount,
	}
	s.appendSubscriptionLocked(sub)
	p.Status = types.PaymentConfirmed
	p.UpdatedAt = startedAt
	cp := *p
	return &cp, sub, nil
}

func (s *MemoryStore) ListPayments(_ context.Context, statuses ...types.PaymentStatus) ([]*types.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[types.PaymentStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	out := make([]*types.Payment, 0)
	for _, p := range s.payments {
		if want[p.Status] {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PaymentID < out[j].PaymentID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
