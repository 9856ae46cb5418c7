package types

import (
	"context"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	FirstName    string
	RegisteredAt time.Time
	ReferrerID   *int64
	TotalQueries int
	BonusQueries int
	IsBanned     bool
}

type Subscription struct {
	ID        int64
	UserID    int64
	Plan      Plan
	StartedAt time.Time
	ExpiresAt time.Time
	PaymentID string
	Amount    int64
}

type Payment struct {
	PaymentID string
	UserID    int64
	Plan      Plan
	Amount    int64
	Method    Method
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	TotalUsers     int   `json:"total_users"`
	PremiumUsers   int   `json:"premium_users"`
	TodayQueries   int   `json:"today_queries"`
	MonthlyRevenue int64 `json:"monthly_revenue"`
	NewToday       int   `json:"new_today"`
	NewWeek        int   `json:"new_week"`
}

// NewUser is the insert-if-absent payload for UserStore.RegisterUser.
type NewUser struct {
	UserID     int64
	Username   string
	FirstName  string
	ReferrerID int64
	Bonus      int
}

type UserStore interface {
	// RegisterUser inserts the user if absent. The referrer link and bonus
	// credit are applied only when the row was newly inserted.
	RegisterUser(ctx context.Context, u NewUser) (created bool, credited bool, err error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	CountReferrals(ctx context.Context, userID int64) (int, error)
	SetBanned(ctx context.Context, userID int64, banned bool) error
	Stats(ctx context.Context, today string, dayStart, now time.Time) (*Stats, error)
}

type QuotaStore interface {
	UsageOn(ctx context.Context, userID int64, day string) (int, error)
	// IncrementUsage bumps the (user, day) counter and the lifetime total atomically.
	IncrementUsage(ctx context.Context, userID int64, day string) error
	ConsumeBonus(ctx context.Context, userID int64) (bool, error)
	RefundBonus(ctx context.Context, userID int64) error
}

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub Subscription) error
	// LatestExpiry returns the maximum expiry strictly after now, or nil.
	LatestExpiry(ctx context.Context, userID int64, now time.Time) (*time.Time, error)
}

type PaymentStore interface {
	// CreatePayment returns inserted=false when the payment id is taken.
	CreatePayment(ctx context.Context, p Payment) (inserted bool, err error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	// TransitionPayment moves a payment from one status to another with a
	// conditional update. It returns ErrNotFound or ErrInvalidState on mismatch.
	TransitionPayment(ctx context.Context, paymentID string, from, to PaymentStatus, now time.Time) (*Payment, error)
	// ConfirmPayment marks an awaiting payment confirmed and appends the
	// subscription in a single transaction.
	ConfirmPayment(ctx context.Context, paymentID string, startedAt, expiresAt time.Time) (*Payment, *Subscription, error)
	ListPayments(ctx context.Context, statuses ...PaymentStatus) ([]*Payment, error)
}

// PaymentCache is a read-through cache of non-terminal payments. It is never
// the record of truth.
type PaymentCache interface {
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	SetPayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, paymentID string) error
}

// HistoryStore keeps the bounded per-user conversation window.
type HistoryStore interface {
	Append(ctx context.Context, userID int64, msgs ...ChatMessage) error
	History(ctx context.Context, userID int64) ([]ChatMessage, error)
	Clear(ctx context.Context, userID int64) error
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
