package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/neural-bot/internal/contextkeys"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/types"
)

const (
	cbBuy          = "buy"
	cbPay          = "pay"
	cbPaid         = "paid"
	cbAdminConfirm = "admin_confirm"
	cbAdminReject  = "admin_reject"
	cbAdmin        = "admin"
	cbSubscription = "subscription"
	cbReferral     = "referral"
	cbMenu         = "menu"

	adminStats   = "stats"
	adminPending = "pending"
)

type callback struct {
	action string
	args   []string
}

func parseCallback(data string) callback {
	parts := strings.Split(strings.TrimSpace(data), ":")
	return callback{action: parts[0], args: parts[1:]}
}

func (c callback) arg(i int) string {
	if i < 0 || i >= len(c.args) {
		return ""
	}
	return strings.TrimSpace(c.args[i])
}

func (bh *Handlers) HandleClickButton(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	data, _ := contextkeys.GetCallbackData(ctx)
	if data == "" {
		data = cq.Data
	}
	c := parseCallback(data)

	switch c.action {
	case cbBuy:
		bh.handleBuy(ctx, b, cq, user, types.Plan(c.arg(0)))
	case cbPay:
		bh.handlePay(ctx, b, cq, user, types.Plan(c.arg(0)), types.Method(c.arg(1)))
	case cbPaid:
		bh.handlePaid(ctx, b, cq, user, c.arg(0))
	case cbAdminConfirm:
		bh.handleAdminConfirm(ctx, b, cq, user, c.arg(0))
	case cbAdminReject:
		bh.handleAdminReject(ctx, b, cq, user, c.arg(0))
	case cbAdmin:
		bh.handleAdminPanel(ctx, b, cq, user, c.arg(0))
	case cbSubscription, cbReferral, cbMenu:
		bh.HandleMenuClick(ctx, b, cq, user, c.action)
	default:
		bh.answerCallback(ctx, b, cq.ID, "")
		bh.log.Debug().Str("data", data).Msg("unknown callback")
	}
}

// HandleMenuClick redraws the callback's message as one of the info screens.
func (bh *Handlers) HandleMenuClick(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, action string) {
	lang := contextkeys.GetLang(ctx)
	var (
		text   string
		markup *models.InlineKeyboardMarkup
		err    error
	)
	switch action {
	case cbSubscription:
		text, err = bh.premiumText(ctx, user.UserID, lang)
		markup = bh.plansKeyboard(lang)
	case cbReferral:
		text, err = bh.referralText(ctx, user.UserID, lang)
		markup = backKeyboard(lang)
	default:
		text = messages.StartWelcome(lang, user.FirstName, bh.freePerDay)
	}
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", user.UserID).Str("action", action).Msg("menu click failed")
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.ErrorToast(lang))
		return
	}
	bh.answerCallback(ctx, b, cq.ID, "")
	bh.edit(ctx, b, cq, text, markup)
}

func (bh *Handlers) handleAdminPanel(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, item string) {
	if !bh.isAdmin(user.UserID) {
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.NoAccess(contextkeys.GetLang(ctx)))
		return
	}
	bh.answerCallback(ctx, b, cq.ID, "")
	switch item {
	case adminStats:
		bh.edit(ctx, b, cq, bh.statsText(ctx), adminPanelKeyboard())
	case adminPending:
		bh.edit(ctx, b, cq, bh.pendingText(ctx), adminPanelKeyboard())
	}
}
