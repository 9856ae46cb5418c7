package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/neural-bot/internal/contextkeys"
	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/types"
)

// parseCommand splits "/cmd@bot a b" into "/cmd" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", nil
	}
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	lang := contextkeys.GetLang(ctx)
	chatID := update.Message.Chat.ID
	cmd, args := parseCommand(update.Message.Text)

	switch cmd {
	case "/start", "/menu":
		bh.sendMainMenu(ctx, b, chatID, user, lang)
	case "/help":
		bh.sendHelp(ctx, b, chatID, lang)
	case "/profile":
		bh.sendProfile(ctx, b, chatID, user, lang)
	case "/premium":
		bh.sendPremium(ctx, b, chatID, user.UserID, lang)
	case "/referral":
		bh.sendReferral(ctx, b, chatID, user.UserID, lang)
	case "/clear":
		if err := bh.ai.Reset(ctx, user.UserID); err != nil {
			bh.log.Error().Err(err).Int64("user_id", user.UserID).Msg("clear history failed")
			bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
			return
		}
		bh.send(ctx, b, chatID, messages.HistoryCleared(lang), nil)
	case "/admin", "/stats", "/pending", "/grant", "/ban", "/unban":
		if !bh.isAdmin(user.UserID) {
			bh.send(ctx, b, chatID, messages.ErrorUnknownCommand(lang), nil)
			return
		}
		bh.handleAdminCommand(ctx, b, chatID, cmd, args)
	default:
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand(lang), nil)
	}
}

func (bh *Handlers) sendHelp(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang) {
	bh.send(ctx, b, chatID, messages.Help(lang, bh.freePerDay, bh.referrals.Bonus()), nil)
}

func (bh *Handlers) profileText(ctx context.Context, userID int64, lang i18n.Lang) (string, error) {
	user, err := bh.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	balance, err := bh.evaluator.Balance(ctx, userID, user.BonusQueries)
	if err != nil {
		return "", err
	}
	expires, err := bh.subs.ActiveExpiry(ctx, userID)
	if err != nil {
		return "", err
	}
	count, err := bh.referrals.Count(ctx, userID)
	if err != nil {
		return "", err
	}
	return messages.Profile(lang, messages.ProfileView{
		UserID:       user.UserID,
		Name:         user.FirstName,
		RegisteredAt: user.RegisteredAt,
		TotalQueries: user.TotalQueries,
		Unlimited:    balance.Unlimited,
		Remaining:    balance.Remaining(),
		Bonus:        user.BonusQueries,
		ExpiresAt:    expires,
		Referrals:    count,
	}), nil
}

func (bh *Handlers) sendProfile(ctx context.Context, b *bot.Bot, chatID int64, user *types.User, lang i18n.Lang) {
	text, err := bh.profileText(ctx, user.UserID, lang)
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", user.UserID).Msg("profile failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.send(ctx, b, chatID, text, nil)
}

func (bh *Handlers) premiumText(ctx context.Context, userID int64, lang i18n.Lang) (string, error) {
	expires, err := bh.subs.ActiveExpiry(ctx, userID)
	if err != nil {
		return "", err
	}
	return messages.PremiumInfo(lang, bh.tierViews(), expires), nil
}

func (bh *Handlers) sendPremium(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	text, err := bh.premiumText(ctx, userID, lang)
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", userID).Msg("premium info failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.send(ctx, b, chatID, text, bh.plansKeyboard(lang))
}

func (bh *Handlers) referralText(ctx context.Context, userID int64, lang i18n.Lang) (string, error) {
	count, err := bh.referrals.Count(ctx, userID)
	if err != nil {
		return "", err
	}
	return messages.ReferralInfo(lang, bh.referralLink(userID), count, bh.referrals.Bonus()), nil
}

func (bh *Handlers) sendReferral(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	text, err := bh.referralText(ctx, userID, lang)
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", userID).Msg("referral info failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.send(ctx, b, chatID, text, nil)
}
