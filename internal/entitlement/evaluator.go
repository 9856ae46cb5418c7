package entitlement

import (
	"context"
	"fmt"

	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/rs/zerolog"
)

type Path string

const (
	PathSubscription Path = "subscription"
	PathFree         Path = "free"
	PathBonus        Path = "bonus"
	PathDeny         Path = "deny"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Admit bool
	Path  Path
	// ReferralBonus is set on deny, for the limit-reached message.
	ReferralBonus int
}

// Balance is what a user has left today.
type Balance struct {
	Unlimited bool
	UsedToday int
	Free      int
	Bonus     int
}

func (b Balance) Remaining() int {
	left := b.Free - b.UsedToday
	if left < 0 {
		left = 0
	}
	return left + b.Bonus
}

// Evaluator decides whether a message is served and which balance pays for it.
type Evaluator struct {
	subs          *ledger.Subscriptions
	quota         *ledger.Quota
	freePerDay    int
	referralBonus int
	log           zerolog.Logger
}

func NewEvaluator(subs *ledger.Subscriptions, quota *ledger.Quota, freePerDay, referralBonus int, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		subs:          subs,
		quota:         quota,
		freePerDay:    freePerDay,
		referralBonus: referralBonus,
		log:           log,
	}
}

// Evaluate admits or denies a message. A bonus admission has already taken
// its credit; call Release if the message ends up unserved.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) (Decision, error) {
	active, err := e.subs.IsActive(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("check subscription for user %d: %w", userID, err)
	}
	if active {
		return Decision{Admit: true, Path: PathSubscription}, nil
	}

	used, err := e.quota.TodayUsage(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("read usage for user %d: %w", userID, err)
	}
	if used < e.freePerDay {
		return Decision{Admit: true, Path: PathFree}, nil
	}

	ok, err := e.quota.ConsumeBonus(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("consume bonus for user %d: %w", userID, err)
	}
	if ok {
		return Decision{Admit: true, Path: PathBonus}, nil
	}
	return Decision{Path: PathDeny, ReferralBonus: e.referralBonus}, nil
}

// Commit records a served message against today's usage.
func (e *Evaluator) Commit(ctx context.Context, userID int64, d Decision) error {
	if !d.Admit {
		return nil
	}
	if err := e.quota.IncrementUsage(ctx, userID); err != nil {
		return fmt.Errorf("increment usage for user %d: %w", userID, err)
	}
	return nil
}

// Release gives back a bonus credit reserved by Evaluate.
func (e *Evaluator) Release(ctx context.Context, userID int64, d Decision) {
	if d.Path != PathBonus {
		return
	}
	if err := e.quota.RefundBonus(ctx, userID); err != nil {
		e.log.Error().Err(err).Int64("user_id", userID).Msg("refund bonus failed")
	}
}

// Balance reports today's allowance for the profile screen.
func (e *Evaluator) Balance(ctx context.Context, userID int64, bonus int) (Balance, error) {
	active, err := e.subs.IsActive(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	used, err := e.quota.TodayUsage(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Unlimited: active, UsedToday: used, Free: e.freePerDay, Bonus: bonus}, nil
}
