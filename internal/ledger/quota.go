package ledger

import (
	"context"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

const dayLayout = "2006-01-02"

// Clock returns the current instant. Tests substitute a fixed clock.
type Clock func() time.Time

// Quota tracks the free daily allowance and the bonus balance. A day is the
// calendar date in loc, so the allowance resets at local midnight.
type Quota struct {
	store types.QuotaStore
	loc   *time.Location
	now   Clock
}

func NewQuota(store types.QuotaStore, loc *time.Location, now Clock) *Quota {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Quota{store: store, loc: loc, now: now}
}

// Today returns the current day key.
func (q *Quota) Today() string {
	return DayKey(q.now(), q.loc)
}

// DayStart returns local midnight of the current day.
func (q *Quota) DayStart() time.Time {
	t := q.now().In(q.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, q.loc)
}

func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

func (q *Quota) TodayUsage(ctx context.Context, userID int64) (int, error) {
	return q.store.UsageOn(ctx, userID, q.Today())
}

func (q *Quota) IncrementUsage(ctx context.Context, userID int64) error {
	return q.store.IncrementUsage(ctx, userID, q.Today())
}

// ConsumeBonus debits one bonus credit. It returns false, without mutation,
// when the balance is zero.
func (q *Quota) ConsumeBonus(ctx context.Context, userID int64) (bool, error) {
	return q.store.ConsumeBonus(ctx, userID)
}

// RefundBonus returns a credit taken by ConsumeBonus whose request was not served.
func (q *Quota) RefundBonus(ctx context.Context, userID int64) error {
	return q.store.RefundBonus(ctx, userID)
}
