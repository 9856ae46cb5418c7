package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/BatmanBruc/neural-bot/internal/contextkeys"
	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/types"
)

type Notifier interface {
	Notify(chatID int64, text string, markup models.ReplyMarkup)
}

type Middlewares struct {
	referrals *ledger.Referrals
	users     types.UserStore
	notifier  Notifier
	adminID   int64
	log       zerolog.Logger
}

func NewMiddlewares(referrals *ledger.Referrals, users types.UserStore, notifier Notifier, adminID int64, log zerolog.Logger) *Middlewares {
	return &Middlewares{
		referrals: referrals,
		users:     users,
		notifier:  notifier,
		adminID:   adminID,
		log:       log,
	}
}

// RegisterUserMiddleware makes sure the sender has a user row, credits the
// referrer of a new user and drops updates from banned users.
func (m *Middlewares) RegisterUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		from, chatID := senderOf(update)
		if from == nil || from.ID == 0 || chatID == 0 {
			return
		}
		lang := i18n.FromLanguageCode(from.LanguageCode)
		ctx = contextkeys.WithLang(ctx, lang)

		user, err := m.users.GetUser(ctx, from.ID)
		if errors.Is(err, types.ErrNotFound) {
			user, err = m.register(ctx, update, from)
			if err != nil {
				m.log.Error().Err(err).Int64("user_id", from.ID).Msg("register user failed")
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID:    chatID,
					Text:      messages.ErrorDefault(lang),
					ParseMode: messages.ParseModeHTML,
				})
				return
			}
		}
		if err != nil {
			m.log.Error().Err(err).Int64("user_id", from.ID).Msg("load user failed")
			return
		}
		if user.IsBanned && user.UserID != m.adminID {
			m.log.Debug().Int64("user_id", user.UserID).Msg("update from banned user ignored")
			if update.CallbackQuery != nil {
				b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})
			}
			return
		}

		next(contextkeys.WithUser(ctx, user), b, update)
	}
}

// register inserts an unknown sender and credits the referrer from the
// /start payload. RegisterUser is insert-if-absent, so a racing first update
// credits nothing.
func (m *Middlewares) register(ctx context.Context, update *models.Update, from *models.User) (*types.User, error) {
	referrer := int64(0)
	if update.Message != nil {
		referrer = ledger.ParseCode(startPayload(update.Message.Text))
	}

	res, err := m.referrals.Register(ctx, ledger.RegisterParams{
		UserID:     from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		ReferrerID: referrer,
	})
	if err != nil {
		return nil, err
	}
	if res.Created {
		m.log.Info().Int64("user_id", from.ID).Int64("referrer_id", referrer).Bool("credited", res.Credited).Msg("new user")
	}
	if res.Credited && m.notifier != nil {
		m.notifier.Notify(referrer, messages.ReferralCredited(i18n.RU, res.Bonus), nil)
	}
	return m.users.GetUser(ctx, from.ID)
}

func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msgType := classify(update)
		ctx = contextkeys.WithMessageType(ctx, msgType)
		if msgType == contextkeys.MessageTypeClickButton {
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		}
		next(ctx, b, update)
	}
}

func classify(update *models.Update) contextkeys.MessageType {
	if update.CallbackQuery != nil && update.CallbackQuery.Data != "" {
		return contextkeys.MessageTypeClickButton
	}
	if update.Message == nil {
		return contextkeys.MessageTypeUnknown
	}
	text := strings.TrimSpace(update.Message.Text)
	switch {
	case strings.HasPrefix(text, "/"):
		return contextkeys.MessageTypeCommand
	case text != "":
		return contextkeys.MessageTypeText
	default:
		return contextkeys.MessageTypeUnsupported
	}
}

func senderOf(update *models.Update) (*models.User, int64) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From, update.Message.Chat.ID
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From, getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
	default:
		return nil, 0
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}

// startPayload returns the deep-link argument of a /start command.
func startPayload(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd != "/start" {
		return ""
	}
	return fields[1]
}
