package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BatmanBruc/neural-bot/types"
)

const codePrefix = "ref"

type RegisterParams struct {
	UserID     int64
	Username   string
	FirstName  string
	ReferrerID int64
}

type RegisterResult struct {
	Created  bool
	Credited bool
	Bonus    int
}

type Referrals struct {
	store types.UserStore
	bonus int
}

func NewReferrals(store types.UserStore, bonus int) *Referrals {
	return &Referrals{store: store, bonus: bonus}
}

func (r *Referrals) Bonus() int {
	return r.bonus
}

// Register creates the user if absent. The referrer is credited only when the
// row is new, so repeated calls never credit twice.
func (r *Referrals) Register(ctx context.Context, p RegisterParams) (RegisterResult, error) {
	referrer := p.ReferrerID
	if referrer == p.UserID {
		referrer = 0
	}
	created, credited, err := r.store.RegisterUser(ctx, types.NewUser{
		UserID:     p.UserID,
		Username:   p.Username,
		FirstName:  p.FirstName,
		ReferrerID: referrer,
		Bonus:      r.bonus,
	})
	if err != nil {
		return RegisterResult{}, fmt.Errorf("register user %d: %w", p.UserID, err)
	}
	res := RegisterResult{Created: created, Credited: credited}
	if credited {
		res.Bonus = r.bonus
	}
	return res, nil
}

func (r *Referrals) Count(ctx context.Context, userID int64) (int, error) {
	return r.store.CountReferrals(ctx, userID)
}

// Code is the /start payload that attributes a new user to userID.
func Code(userID int64) string {
	return codePrefix + strconv.FormatInt(userID, 10)
}

// ParseCode extracts the referrer id from a /start payload. It returns 0 for
// anything that is not a well-formed referral code.
func ParseCode(payload string) int64 {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, codePrefix) {
		return 0
	}
	id, err := strconv.ParseInt(payload[len(codePrefix):], 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
