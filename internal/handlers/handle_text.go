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

// HandleText routes reply-keyboard buttons and sends everything else to the AI.
func (bh *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	lang := contextkeys.GetLang(ctx)
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch menuAction(text) {
	case menuPremium:
		bh.sendPremium(ctx, b, chatID, user.UserID, lang)
		return
	case menuProfile:
		bh.sendProfile(ctx, b, chatID, user, lang)
		return
	case menuReferral:
		bh.sendReferral(ctx, b, chatID, user.UserID, lang)
		return
	case menuHelp:
		bh.sendHelp(ctx, b, chatID, lang)
		return
	}

	decision, err := bh.evaluator.Evaluate(ctx, user.UserID)
	if err != nil {
		bh.log.Error().Err(err).Int64("user_id", user.UserID).Msg("evaluate entitlement failed")
		bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	if !decision.Admit {
		bh.send(ctx, b, chatID, messages.LimitReached(lang, bh.freePerDay, decision.ReferralBonus), limitKeyboard(lang))
		return
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})

	reply, err := bh.ai.Respond(ctx, user.UserID, text)
	if err != nil {
		bh.evaluator.Release(ctx, user.UserID, decision)
		bh.log.Error().Err(err).Int64("user_id", user.UserID).Str("path", string(decision.Path)).Msg("ai response failed")
		bh.send(ctx, b, chatID, messages.ErrorAI(lang), nil)
		return
	}
	if err := bh.evaluator.Commit(ctx, user.UserID, decision); err != nil {
		bh.log.Error().Err(err).Int64("user_id", user.UserID).Msg("commit usage failed")
	}

	for _, part := range messages.Split(reply, messages.MaxMessageLength) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: part}); err != nil {
			bh.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send ai reply part failed")
		}
	}
}
