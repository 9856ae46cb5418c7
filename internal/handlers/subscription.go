package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/neural-bot/internal/contextkeys"
	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/BatmanBruc/neural-bot/types"
)

func (bh *Handlers) handleBuy(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, plan types.Plan) {
	lang := contextkeys.GetLang(ctx)
	price, ok := bh.catalog.Price(plan)
	if !ok {
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.ErrorToast(lang))
		return
	}
	bh.answerCallback(ctx, b, cq.ID, "")
	bh.edit(ctx, b, cq, messages.ChooseMethod(lang, plan, price), methodsKeyboard(lang, plan))
}

func (bh *Handlers) handlePay(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, plan types.Plan, method types.Method) {
	lang := contextkeys.GetLang(ctx)
	p, err := bh.payments.Create(ctx, user.UserID, plan, method)
	if err != nil {
		if !errors.Is(err, types.ErrInvalidInput) {
			bh.log.Error().Err(err).Int64("user_id", user.UserID).Msg("create payment failed")
		}
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.ErrorToast(lang))
		return
	}
	in := bh.payments.Instructions(p.Method, p.Amount, p.PaymentID)
	bh.answerCallback(ctx, b, cq.ID, "")
	bh.edit(ctx, b, cq,
		messages.PaymentInstructions(lang, p.Plan, in.Method, in.Amount, in.PaymentID, in.Details, bh.support),
		paidKeyboard(lang, p.PaymentID))
}

func (bh *Handlers) handlePaid(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, paymentID string) {
	lang := contextkeys.GetLang(ctx)
	p, err := bh.payments.MarkPaid(ctx, user.UserID, paymentID)
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrForbidden):
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.PaymentNotFound(lang))
		return
	case errors.Is(err, types.ErrInvalidState):
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.PaymentAlreadySubmitted(lang))
		return
	case err != nil:
		bh.log.Error().Err(err).Str("payment_id", paymentID).Msg("mark paid failed")
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.ErrorToast(lang))
		return
	}

	bh.answerCallback(ctx, b, cq.ID, messages.PaymentSubmittedToast(lang))
	bh.edit(ctx, b, cq, messages.PaymentSubmitted(lang, p.PaymentID, p.Amount), nil)
	bh.notifier.Notify(bh.adminID, messages.AdminPaymentRequest(messages.AdminPaymentView{
		PaymentID: p.PaymentID,
		UserID:    p.UserID,
		Username:  user.Username,
		FirstName: user.FirstName,
		Plan:      p.Plan,
		Method:    p.Method,
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt,
	}), adminPaymentKeyboard(p.PaymentID))
}

func (bh *Handlers) handleAdminConfirm(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, paymentID string) {
	res, err := bh.payments.Confirm(ctx, user.UserID, paymentID)
	if bh.adminOutcomeFailed(ctx, b, cq, paymentID, err) {
		return
	}
	bh.answerCallback(ctx, b, cq.ID, messages.AdminConfirmedToast())
	bh.markAdminMessage(ctx, b, cq, messages.AdminConfirmedSuffix())
	bh.notifier.Notify(res.UserID, messages.PaymentConfirmed(userLang(), res.Plan, res.ExpiresAt), nil)
}

func (bh *Handlers) handleAdminReject(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, user *types.User, paymentID string) {
	buyer, err := bh.payments.Reject(ctx, user.UserID, paymentID)
	if bh.adminOutcomeFailed(ctx, b, cq, paymentID, err) {
		return
	}
	bh.answerCallback(ctx, b, cq.ID, messages.AdminRejectedToast())
	bh.markAdminMessage(ctx, b, cq, messages.AdminRejectedSuffix())
	bh.notifier.Notify(buyer, messages.PaymentRejected(userLang(), paymentID, bh.support), nil)
}

// adminOutcomeFailed answers the callback for every non-success outcome of
// an admin decision and reports whether there was one.
func (bh *Handlers) adminOutcomeFailed(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, paymentID string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, types.ErrForbidden):
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.NoAccess(contextkeys.GetLang(ctx)))
	case types.IsResolved(err):
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.AdminAlreadyResolved())
		bh.markAdminMessage(ctx, b, cq, "")
	default:
		bh.log.Error().Err(err).Str("payment_id", paymentID).Msg("admin decision failed")
		bh.answerCallbackAlert(ctx, b, cq.ID, messages.ErrorToast(contextkeys.GetLang(ctx)))
	}
	return true
}

// markAdminMessage appends suffix to the payment request and drops its buttons.
func (bh *Handlers) markAdminMessage(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, suffix string) {
	msg := cq.Message.Message
	if msg == nil {
		return
	}
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      messages.Escape(msg.Text) + suffix,
		ParseMode: messages.ParseModeHTML,
	}); err != nil {
		bh.log.Warn().Err(err).Int("message_id", msg.ID).Msg("mark admin message failed")
	}
}
