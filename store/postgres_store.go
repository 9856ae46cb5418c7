package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const queryTimeout = 5 * time.Second

type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	_ types.UserStore         = (*PostgresStore)(nil)
	_ types.QuotaStore        = (*PostgresStore)(nil)
	_ types.SubscriptionStore = (*PostgresStore)(nil)
	_ types.PaymentStore      = (*PostgresStore)(nil)
)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrPersistence, err)
}

func (s *PostgresStore) RegisterUser(ctx context.Context, u types.NewUser) (bool, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, false, persistErr("register user", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var referrer *int64
	if u.ReferrerID != 0 && u.ReferrerID != u.UserID {
		var exists bool
		err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, u.ReferrerID).Scan(&exists)
		if err != nil {
			return false, false, persistErr("register user", err)
		}
		if exists {
			id := u.ReferrerID
			referrer = &id
		}
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO users (user_id, username, first_name, referrer_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO NOTHING
`, u.UserID, strings.TrimSpace(u.Username), strings.TrimSpace(u.FirstName), referrer)
	if err != nil {
		return false, false, persistErr("register user", err)
	}
	created := tag.RowsAffected() > 0
	credited := false
	if created && referrer != nil && u.Bonus > 0 {
		_, err = tx.Exec(ctx, `
UPDATE users SET bonus_queries = bonus_queries + $2
WHERE user_id = $1
`, *referrer, u.Bonus)
		if err != nil {
			return false, false, persistErr("credit referrer", err)
		}
		credited = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, false, persistErr("register user", err)
	}
	return created, credited, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var u types.User
	err := s.pool.QueryRow(ctx, `
SELECT user_id, username, first_name, registered_at, referrer_id, total_queries, bonus_queries, is_banned
FROM users
WHERE user_id = $1
`, userID).Scan(&u.UserID, &u.Username, &u.FirstName, &u.RegisteredAt, &u.ReferrerID, &u.TotalQueries, &u.BonusQueries, &u.IsBanned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, persistErr("get user", err)
	}
	return &u, nil
}

func (s *PostgresStore) CountReferrals(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referrer_id = $1`, userID).Scan(&n); err != nil {
		return 0, persistErr("count referrals", err)
	}
	return n, nil
}

func (s *PostgresStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_banned = $2 WHERE user_id = $1`, userID, banned)
	if err != nil {
		return persistErr("set banned", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context, today string, dayStart, now time.Time) (*types.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var st types.Stats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(DISTINCT user_id) FROM subscriptions WHERE expires_at > $2),
  (SELECT COALESCE(SUM(query_count), 0) FROM usage WHERE query_date = $1::date),
  (SELECT COALESCE(SUM(amount), 0) FROM subscriptions WHERE started_at > $3),
  (SELECT COUNT(*) FROM users WHERE registered_at >= $4),
  (SELECT COUNT(*) FROM users WHERE registered_at > $5)
`, today, now, now.AddDate(0, 0, -30), dayStart, now.AddDate(0, 0, -7)).Scan(
		&st.TotalUsers, &st.PremiumUsers, &st.TodayQueries, &st.MonthlyRevenue, &st.NewToday, &st.NewWeek)
	if err != nil {
		return nil, persistErr("stats", err)
	}
	return &st, nil
}

func (s *PostgresStore) UsageOn(ctx context.Context, userID int64, day string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	err := s.pool.QueryRow(ctx, `
SELECT query_count FROM usage WHERE user_id = $1 AND query_date = $2::date
`, userID, day).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, persistErr("get usage", err)
	}
	return n, nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, userID int64, day string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return persistErr("increment usage", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO usage (user_id, query_date, query_count)
VALUES ($1, $2::date, 1)
ON CONFLICT (user_id, query_date) DO UPDATE SET query_count = usage.query_count + 1
`, userID, day)
	if err != nil {
		return persistErr("increment usage", err)
	}
	_, err = tx.Exec(ctx, `UPDATE users SET total_queries = total_queries + 1 WHERE user_id = $1`, userID)
	if err != nil {
		return persistErr("increment total queries", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return persistErr("increment usage", err)
	}
	return nil
}

func (s *PostgresStore) ConsumeBonus(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE users SET bonus_queries = bonus_queries - 1
WHERE user_id = $1 AND bonus_queries > 0
`, userID)
	if err != nil {
		return false, persistErr("consume bonus", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) RefundBonus(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, `UPDATE users SET bonus_queries = bonus_queries + 1 WHERE user_id = $1`, userID)
	if err != nil {
		return persistErr("refund bonus", err)
	}
	return nil
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub types.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscriptions (user_id, plan, started_at, expires_at, payment_id, amount)
VALUES ($1, $2, $3, $4, $5, $6)
`, sub.UserID, string(sub.Plan), sub.StartedAt, sub.ExpiresAt, sub.PaymentID, sub.Amount)
	if err != nil {
		return persistErr("create subscription", err)
	}
	return nil
}

func (s *PostgresStore) LatestExpiry(ctx context.Context, userID int64, now time.Time) (*time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var expires *time.Time
	err := s.pool.QueryRow(ctx, `
SELECT MAX(expires_at)
FROM subscriptions
WHERE user_id = $1 AND expires_at > $2
`, userID, now).Scan(&expires)
	if err != nil {
		return nil, persistErr("latest expiry", err)
	}
	return expires, nil
}

const paymentColumns = `payment_id, user_id, plan, amount, method, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*types.Payment, error) {
	var p types.Payment
	var plan, method, status string
	if err := row.Scan(&p.PaymentID, &p.UserID, &plan, &p.Amount, &method, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Plan = types.Plan(plan)
	p.Method = types.Method(method)
	p.Status = types.PaymentStatus(status)
	return &p, nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p types.Payment) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
INSERT INTO payments (payment_id, user_id, plan, amount, method, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (payment_id) DO NOTHING
`, p.PaymentID, p.UserID, string(p.Plan), p.Amount, string(p.Method), string(p.Status), p.CreatedAt)
	if err != nil {
		return false, persistErr("create payment", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetPayment(ctx context.Context, paymentID string) (*types.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	p, err := scanPayment(s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, persistErr("get payment", err)
	}
	return p, nil
}

func (s *PostgresStore) TransitionPayment(ctx context.Context, paymentID string, from, to types.PaymentStatus, now time.Time) (*types.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	p, err := scanPayment(s.pool.QueryRow(ctx, `
UPDATE payments SET status = $3, updated_at = $4
WHERE payment_id = $1 AND status = $2
RETURNING `+paymentColumns, paymentID, string(from), string(to), now))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, persistErr("transition payment", err)
	}
	if _, err := s.GetPayment(ctx, paymentID); err != nil {
		return nil, err
	}
	return nil, types.ErrInvalidState
}

func (s *PostgresStore) ConfirmPayment(ctx context.Context, paymentID string, startedAt, expiresAt time.Time) (*types.Payment, *types.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, persistErr("confirm payment", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPayment(tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1 FOR UPDATE`, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, types.ErrNotFound
	}
	if err != nil {
		return nil, nil, persistErr("confirm payment", err)
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
	err = tx.QueryRow(ctx, `
INSERT INTO subscriptions (user_id, plan, started_at, expires_at, payment_id, amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`, sub.UserID, string(sub.Plan), sub.StartedAt, sub.ExpiresAt, sub.PaymentID, sub.Amount).Scan(&sub.ID)
	if err != nil {
		return nil, nil, persistErr("insert subscription", err)
	}
	_, err = tx.Exec(ctx, `
UPDATE payments SET status = $2, updated_at = $3
WHERE payment_id = $1
`, paymentID, string(types.PaymentConfirmed), startedAt)
	if err != nil {
		return nil, nil, persistErr("confirm payment", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, persistErr("confirm payment", err)
	}
	p.Status = types.PaymentConfirmed
	p.UpdatedAt = startedAt
	return p, sub, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, statuses ...types.PaymentStatus) ([]*types.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	raw := make([]string, 0, len(statuses))
	for _, st := range statuses {
		raw = append(raw, string(st))
	}
	rows, err := s.pool.Query(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE status = ANY($1)
ORDER BY created_at
`, raw)
	if err != nil {
		return nil, persistErr("list payments", err)
	}
	defer rows.Close()
	out := make([]*types.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, persistErr("scan payment", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list payments", err)
	}
	return out, nil
}
