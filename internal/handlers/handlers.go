package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/BatmanBruc/neural-bot/internal/contextkeys"
	"github.com/BatmanBruc/neural-bot/internal/entitlement"
	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/internal/payments"
	"github.com/BatmanBruc/neural-bot/internal/pricing"
	"github.com/BatmanBruc/neural-bot/types"
)

// Responder answers a user's message and can forget the dialogue.
type Responder interface {
	Respond(ctx context.Context, userID int64, text string) (string, error)
	Reset(ctx context.Context, userID int64) error
}

// Notifier delivers a message outside the current update, best effort.
type Notifier interface {
	Notify(chatID int64, text string, markup models.ReplyMarkup)
}

type Deps struct {
	Users       types.UserStore
	Referrals   *ledger.Referrals
	Subs        *ledger.Subscriptions
	Reports     *ledger.Reports
	Evaluator   *entitlement.Evaluator
	Payments    *payments.Workflow
	Catalog     *pricing.Catalog
	AI          Responder
	Notifier    Notifier
	AdminID     int64
	FreePerDay  int
	Support     string
	BotUsername string
	Log         zerolog.Logger
}

type Handlers struct {
	users       types.UserStore
	referrals   *ledger.Referrals
	subs        *ledger.Subscriptions
	reports     *ledger.Reports
	evaluator   *entitlement.Evaluator
	payments    *payments.Workflow
	catalog     *pricing.Catalog
	ai          Responder
	notifier    Notifier
	adminID     int64
	freePerDay  int
	support     string
	botUsername string
	log         zerolog.Logger
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		users:       d.Users,
		referrals:   d.Referrals,
		subs:        d.Subs,
		reports:     d.Reports,
		evaluator:   d.Evaluator,
		payments:    d.Payments,
		catalog:     d.Catalog,
		ai:          d.AI,
		notifier:    d.Notifier,
		adminID:     d.AdminID,
		freePerDay:  d.FreePerDay,
		support:     d.Support,
		botUsername: d.BotUsername,
		log:         d.Log,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := contextkeys.GetUser(ctx)
	lang := contextkeys.GetLang(ctx)
	chatID := getChatIDFromUpdate(update)
	if !ok {
		bh.log.Error().Msg("user not found in context")
		if chatID != 0 {
			bh.send(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		}
		return
	}

	messageType, _ := contextkeys.GetMessageType(ctx)
	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, b, update, user)
	case contextkeys.MessageTypeText:
		bh.HandleText(ctx, b, update, user)
	case contextkeys.MessageTypeClickButton:
		bh.HandleClickButton(ctx, b, update, user)
	default:
		if chatID != 0 {
			bh.send(ctx, b, chatID, messages.ErrorUnsupportedMessageType(lang), nil)
		}
	}
}

func (bh *Handlers) isAdmin(userID int64) bool {
	return bh.payments.IsAdmin(userID)
}

func (bh *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		bh.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

// edit replaces the callback's message, or sends a new one when it is gone.
func (bh *Handlers) edit(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, text string, markup *models.InlineKeyboardMarkup) {
	msg := cq.Message.Message
	if msg == nil {
		var rm models.ReplyMarkup
		if markup != nil {
			rm = markup
		}
		bh.send(ctx, b, cq.From.ID, text, rm)
		return
	}
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		bh.log.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Int("message_id", msg.ID).Msg("edit message failed")
	}
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

func (bh *Handlers) answerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

func (bh *Handlers) referralLink(userID int64) string {
	return "https://t.me/" + bh.botUsername + "?start=" + ledger.Code(userID)
}

// userLang is the language for notifications to someone other than the sender.
func userLang() i18n.Lang {
	return i18n.RU
}

func getChatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message.Message != nil {
			return update.CallbackQuery.Message.Message.Chat.ID
		}
		if update.CallbackQuery.Message.InaccessibleMessage != nil {
			return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}
