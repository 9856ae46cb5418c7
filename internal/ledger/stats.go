package ledger

import (
	"context"
	"fmt"

	"github.com/BatmanBruc/neural-bot/types"
)

// Reports aggregates the admin dashboard.
type Reports struct {
	store types.UserStore
	quota *Quota
}

func NewReports(store types.UserStore, quota *Quota) *Reports {
	return &Reports{store: store, quota: quota}
}

// Stats counts users, premium users, today's queries, revenue of the last
// 30 days and new users today and in the last 7 days.
func (r *Reports) Stats(ctx context.Context) (*types.Stats, error) {
	st, err := r.store.Stats(ctx, r.quota.Today(), r.quota.DayStart(), r.quota.now())
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return st, nil
}
