package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/internal/utils"
	"github.com/BatmanBruc/neural-bot/types"
)

const (
	menuPremium  = "premium"
	menuProfile  = "profile"
	menuReferral = "referral"
	menuHelp     = "help"
)

var langs = []i18n.Lang{i18n.RU, i18n.EN}

// menuAction maps a reply-keyboard button label, in any language, to its action.
func menuAction(text string) string {
	text = strings.TrimSpace(text)
	for _, l := range langs {
		switch text {
		case messages.BtnPremium(l):
			return menuPremium
		case messages.BtnProfile(l):
			return menuProfile
		case messages.BtnInvite(l):
			return menuReferral
		case messages.BtnHelp(l):
			return menuHelp
		}
	}
	return ""
}

func mainReplyKeyboard(lang i18n.Lang) *models.ReplyKeyboardMarkup {
	return utils.BuildReplyKeyboard(
		[]string{messages.BtnPremium(lang), messages.BtnProfile(lang)},
		[]string{messages.BtnInvite(lang), messages.BtnHelp(lang)},
	)
}

func (bh *Handlers) tierViews() []messages.TierView {
	tiers := bh.catalog.Tiers()
	out := make([]messages.TierView, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, messages.TierView{Plan: t.Plan, Price: t.Price, Days: t.Days})
	}
	return out
}

func (bh *Handlers) plansKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	buttons := make([]utils.Button, 0, 4)
	for _, t := range bh.tierViews() {
		buttons = append(buttons, utils.Button{Text: messages.BtnPlan(lang, t), CallbackData: cbBuy + ":" + string(t.Plan)})
	}
	buttons = append(buttons, utils.Button{Text: messages.BtnInvite(lang), CallbackData: cbReferral})
	return utils.BuildInlineKeyboard(buttons, 1)
}

func methodsKeyboard(lang i18n.Lang, plan types.Plan) *models.InlineKeyboardMarkup {
	buttons := make([]utils.Button, 0, len(types.Methods)+1)
	for _, m := range types.Methods {
		icon := "📱 "
		if m == types.MethodCard {
			icon = "💳 "
		}
		buttons = append(buttons, utils.Button{
			Text:         icon + messages.MethodName(lang, m),
			CallbackData: cbPay + ":" + string(plan) + ":" + string(m),
		})
	}
	buttons = append(buttons, utils.Button{Text: messages.BtnBack(lang), CallbackData: cbSubscription})
	return utils.BuildInlineKeyboard(buttons, 1)
}

func paidKeyboard(lang i18n.Lang, paymentID string) *models.InlineKeyboardMarkup {
	return utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.BtnPaid(lang), CallbackData: cbPaid + ":" + paymentID},
		{Text: messages.BtnCancel(lang), CallbackData: cbSubscription},
	}, 1)
}

func adminPaymentKeyboard(paymentID string) *models.InlineKeyboardMarkup {
	return utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.BtnConfirm(), CallbackData: cbAdminConfirm + ":" + paymentID},
		{Text: messages.BtnReject(), CallbackData: cbAdminReject + ":" + paymentID},
	}, 2)
}

func limitKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	return utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.BtnGetPremium(lang), CallbackData: cbSubscription},
		{Text: messages.BtnInvite(lang), CallbackData: cbReferral},
	}, 1)
}

func backKeyboard(lang i18n.Lang) *models.InlineKeyboardMarkup {
	return utils.BuildInlineKeyboard([]utils.Button{{Text: messages.BtnBack(lang), CallbackData: cbMenu}}, 1)
}

func adminPanelKeyboard() *models.InlineKeyboardMarkup {
	return utils.BuildInlineKeyboard([]utils.Button{
		{Text: messages.BtnStats(), CallbackData: cbAdmin + ":" + adminStats},
		{Text: messages.BtnPending(), CallbackData: cbAdmin + ":" + adminPending},
	}, 2)
}

func (bh *Handlers) sendMainMenu(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, lang i18n.Lang) {
	bh.send(ctx, b, chatID, messages.StartWelcome(lang, user.FirstName, bh.freePerDay), mainReplyKeyboard(lang))
}
