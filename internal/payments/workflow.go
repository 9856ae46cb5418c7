package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/BatmanBruc/neural-bot/internal/pricing"
	"github.com/BatmanBruc/neural-bot/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const mintAttempts = 5

// Confirmation is what the admin's approval produced, for notifying the buyer.
type Confirmation struct {
	UserID    int64
	PaymentID string
	Plan      types.Plan
	Amount    int64
	ExpiresAt time.Time
}

// Workflow drives a payment from purchase intent to a terminal outcome.
// Every transition is a conditional write in the payment store; the optional
// cache only speeds up lookups and is refreshed after each write.
type Workflow struct {
	store   types.PaymentStore
	cache   types.PaymentCache
	subs    *ledger.Subscriptions
	catalog *pricing.Catalog
	adminID int64
	now     ledger.Clock
	newID   func() string
	dest    Destinations
	log     zerolog.Logger
}

type Option func(*Workflow)

func WithCache(cache types.PaymentCache) Option {
	return func(w *Workflow) { w.cache = cache }
}

func WithClock(now ledger.Clock) Option {
	return func(w *Workflow) { w.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(w *Workflow) { w.newID = fn }
}

func WithDestinations(d Destinations) Option {
	return func(w *Workflow) { w.dest = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *Workflow) { w.log = log }
}

func NewWorkflow(store types.PaymentStore, subs *ledger.Subscriptions, catalog *pricing.Catalog, adminID int64, opts ...Option) *Workflow {
	w := &Workflow{
		store:   store,
		subs:    subs,
		catalog: catalog,
		adminID: adminID,
		now:     time.Now,
		newID:   NewPaymentID,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewPaymentID mints a short id an admin can read off a bank statement.
func NewPaymentID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (w *Workflow) IsAdmin(userID int64) bool {
	return userID != 0 && userID == w.adminID
}

// Create records a purchase intent with status created.
func (w *Workflow) Create(ctx context.Context, userID int64, plan types.Plan, method types.Method) (*types.Payment, error) {
	if !plan.Valid() || !method.Valid() {
		return nil, fmt.Errorf("plan %q method %q: %w", plan, method, types.ErrInvalidInput)
	}
	amount, ok := w.catalog.Price(plan)
	if !ok {
		return nil, fmt.Errorf("plan %q has no price: %w", plan, types.ErrInvalidInput)
	}

	now := w.now()
	for i := 0; i < mintAttempts; i++ {
		p := types.Payment{
			PaymentID: w.newID(),
			UserID:    userID,
			Plan:      plan,
			Amount:    amount,
			Method:    method,
			Status:    types.PaymentCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := w.store.CreatePayment(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create payment for user %d: %w", userID, err)
		}
		if !inserted {
			w.log.Warn().Str("payment_id", p.PaymentID).Msg("payment id collision, minting another")
			continue
		}
		w.cachePut(ctx, &p)
		w.log.Info().Str("payment_id", p.PaymentID).Int64("user_id", userID).Str("plan", string(plan)).
			Str("method", string(method)).Int64("amount", amount).Msg("payment created")
		return &p, nil
	}
	return nil, fmt.Errorf("create payment for user %d: could not mint a unique id: %w", userID, types.ErrPersistence)
}

// Instructions describes where to send the money for a payment.
func (w *Workflow) Instructions(method types.Method, amount int64, paymentID string) Instruction {
	return w.dest.Instructions(method, amount, paymentID)
}

// Get reads through the cache to the store.
func (w *Workflow) Get(ctx context.Context, paymentID string) (*types.Payment, error) {
	if w.cache != nil {
		p, err := w.cache.GetPayment(ctx, paymentID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			w.log.Warn().Err(err).Str("payment_id", paymentID).Msg("payment cache read failed")
		}
	}
	p, err := w.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	w.cachePut(ctx, p)
	return p, nil
}

// MarkPaid records the buyer's claim that the money was sent.
func (w *Workflow) MarkPaid(ctx context.Context, userID int64, paymentID string) (*types.Payment, error) {
	p, err := w.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, types.ErrForbidden
	}
	updated, err := w.store.TransitionPayment(ctx, paymentID, types.PaymentCreated, types.PaymentAwaitingConfirmation, w.now())
	if err != nil {
		w.cacheRefresh(ctx, paymentID, err)
		return nil, err
	}
	w.cachePut(ctx, updated)
	w.log.Info().Str("payment_id", paymentID).Int64("user_id", userID).Msg("payment awaiting confirmation")
	return updated, nil
}

// Confirm is the admin's approval. It appends the subscription and marks the
// payment confirmed in one store transaction.
func (w *Workflow) Confirm(ctx context.Context, callerID int64, paymentID string) (*Confirmation, error) {
	if !w.IsAdmin(callerID) {
		w.log.Warn().Int64("caller_id", callerID).Str("payment_id", paymentID).Msg("confirm rejected: not admin")
		return nil, types.ErrForbidden
	}
	p, err := w.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		w.cacheEvict(ctx, paymentID)
		return nil, types.ErrInvalidState
	}
	start, expires, err := w.subs.Window(p.Plan)
	if err != nil {
		return nil, err
	}
	confirmed, sub, err := w.store.ConfirmPayment(ctx, paymentID, start, expires)
	if err != nil {
		w.cacheRefresh(ctx, paymentID, err)
		return nil, err
	}
	w.cacheEvict(ctx, paymentID)
	w.log.Info().Str("payment_id", paymentID).Int64("user_id", confirmed.UserID).
		Time("expires_at", sub.ExpiresAt).Msg("payment confirmed")
	return &Confirmation{
		UserID:    confirmed.UserID,
		PaymentID: confirmed.PaymentID,
		Plan:      confirmed.Plan,
		Amount:    confirmed.Amount,
		ExpiresAt: sub.ExpiresAt,
	}, nil
}

// Reject is the admin's denial. It returns the buyer's id.
func (w *Workflow) Reject(ctx context.Context, callerID int64, paymentID string) (int64, error) {
	if !w.IsAdmin(callerID) {
		w.log.Warn().Int64("caller_id", callerID).Str("payment_id", paymentID).Msg("reject rejected: not admin")
		return 0, types.ErrForbidden
	}
	p, err := w.store.TransitionPayment(ctx, paymentID, types.PaymentAwaitingConfirmation, types.PaymentRejected, w.now())
	if err != nil {
		w.cacheRefresh(ctx, paymentID, err)
		return 0, err
	}
	w.cacheEvict(ctx, paymentID)
	w.log.Info().Str("payment_id", paymentID).Int64("user_id", p.UserID).Msg("payment rejected")
	return p.UserID, nil
}

// Warm loads every non-terminal payment from the store into the cache.
func (w *Workflow) Warm(ctx context.Context) (int, error) {
	if w.cache == nil {
		return 0, nil
	}
	pending, err := w.store.ListPayments(ctx, types.PaymentCreated, types.PaymentAwaitingConfirmation)
	if err != nil {
		return 0, err
	}
	for _, p := range pending {
		w.cachePut(ctx, p)
	}
	return len(pending), nil
}

// Pending lists payments waiting for the admin.
func (w *Workflow) Pending(ctx context.Context) ([]*types.Payment, error) {
	return w.store.ListPayments(ctx, types.PaymentAwaitingConfirmation)
}

func (w *Workflow) cachePut(ctx context.Context, p *types.Payment) {
	if w.cache == nil || p == nil {
		return
	}
	if p.Status.Terminal() {
		w.cacheEvict(ctx, p.PaymentID)
		return
	}
	if err := w.cache.SetPayment(ctx, p); err != nil {
		w.log.Warn().Err(err).Str("payment_id", p.PaymentID).Msg("payment cache write failed")
	}
}

func (w *Workflow) cacheEvict(ctx context.Context, paymentID string) {
	if w.cache == nil {
		return
	}
	if err := w.cache.DeletePayment(ctx, paymentID); err != nil {
		w.log.Warn().Err(err).Str("payment_id", paymentID).Msg("payment cache delete failed")
	}
}

// cacheRefresh drops a cached row that a failed transition proved stale.
func (w *Workflow) cacheRefresh(ctx context.Context, paymentID string, err error) {
	if types.IsResolved(err) {
		w.cacheEvict(ctx, paymentID)
	}
}
