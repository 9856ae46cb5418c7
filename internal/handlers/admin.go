package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-telegram/bot"

	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/types"
)

const grantPaymentID = "grant"

func (bh *Handlers) handleAdminCommand(ctx context.Context, b *bot.Bot, chatID int64, cmd string, args []string) {
	switch cmd {
	case "/admin":
		bh.send(ctx, b, chatID, messages.AdminPanel(), adminPanelKeyboard())
	case "/stats":
		bh.send(ctx, b, chatID, bh.statsText(ctx), nil)
	case "/pending":
		bh.send(ctx, b, chatID, bh.pendingText(ctx), nil)
	case "/grant":
		bh.grant(ctx, b, chatID, args)
	case "/ban", "/unban":
		bh.setBanned(ctx, b, chatID, cmd[1:], args, cmd == "/ban")
	}
}

func (bh *Handlers) statsText(ctx context.Context) string {
	st, err := bh.reports.Stats(ctx)
	if err != nil {
		bh.log.Error().Err(err).Msg("stats failed")
		return messages.ErrorDefault(userLang())
	}
	return messages.AdminStats(st)
}

func (bh *Handlers) pendingText(ctx context.Context) string {
	list, err := bh.payments.Pending(ctx)
	if err != nil {
		bh.log.Error().Err(err).Msg("list pending payments failed")
		return messages.ErrorDefault(userLang())
	}
	return messages.AdminPending(list)
}

// parseGrantArgs reads "<user_id> <plan>".
func parseGrantArgs(args []string) (int64, types.Plan, bool) {
	if len(args) != 2 {
		return 0, "", false
	}
	id, ok := parseUserID(args[0])
	plan := types.Plan(args[1])
	if !ok || !plan.Valid() {
		return 0, "", false
	}
	return id, plan, true
}

func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (bh *Handlers) grant(ctx context.Context, b *bot.Bot, chatID int64, args []string) {
	userID, plan, ok := parseGrantArgs(args)
	if !ok {
		bh.send(ctx, b, chatID, messages.AdminGrantUsage(), nil)
		return
	}
	if _, err := bh.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			bh.send(ctx, b, chatID, messages.AdminUserNotFound(userID), nil)
			return
		}
		bh.log.Error().Err(err).Int64("user_id", userID).Msg("grant lookup failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(userLang()), nil)
		return
	}
	expires, err := bh.subs.Create(ctx, userID, plan, grantPaymentID, 0)
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", userID).Msg("grant failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(userLang()), nil)
		return
	}
	bh.log.Info().Int64("user_id", userID).Str("plan", string(plan)).Time("expires_at", expires).Msg("subscription granted")
	bh.send(ctx, b, chatID, messages.AdminGrantDone(userID, plan, expires), nil)
	bh.notifier.Notify(userID, messages.PaymentConfirmed(userLang(), plan, expires), nil)
}

func (bh *Handlers) setBanned(ctx context.Context, b *bot.Bot, chatID int64, name string, args []string, banned bool) {
	if len(args) != 1 {
		bh.send(ctx, b, chatID, messages.AdminBanUsage(name), nil)
		return
	}
	userID, ok := parseUserID(args[0])
	if !ok || (banned && bh.isAdmin(userID)) {
		bh.send(ctx, b, chatID, messages.AdminBanUsage(name), nil)
		return
	}
	if err := bh.users.SetBanned(ctx, userID, banned); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			bh.send(ctx, b, chatID, messages.AdminUserNotFound(userID), nil)
			return
		}
		bh.log.Error().Err(err).Int64("user_id", userID).Msg("set banned failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(userLang()), nil)
		return
	}
	bh.log.Info().Int64("user_id", userID).Bool("banned", banned).Msg("ban flag changed")
	bh.send(ctx, b, chatID, messages.AdminBanDone(userID, banned), nil)
}
