package contextkeys

import (
	"context"

	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/types"
)

type messageTypeKey struct{}
type userKey struct{}
type langKey struct{}
type callbackDataKey struct{}

type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeCommand     MessageType = "command"
	MessageTypeClickButton MessageType = "clickButton"
	MessageTypeUnsupported MessageType = "unsupported"
	MessageTypeUnknown     MessageType = "unknown"
)

func WithMessageType(ctx context.Context, msgType MessageType) context.Context {
	return context.WithValue(ctx, messageTypeKey{}, msgType)
}

func GetMessageType(ctx context.Context) (MessageType, bool) {
	v, ok := ctx.Value(messageTypeKey{}).(MessageType)
	if !ok {
		return MessageTypeUnknown, false
	}
	return v, true
}

// WithUser stores the registered sender of the update.
func WithUser(ctx context.Context, u *types.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func GetUser(ctx context.Context) (*types.User, bool) {
	u, ok := ctx.Value(userKey{}).(*types.User)
	return u, ok && u != nil
}

func WithLang(ctx context.Context, lang i18n.Lang) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func GetLang(ctx context.Context) i18n.Lang {
	if v, ok := ctx.Value(langKey{}).(i18n.Lang); ok {
		return v
	}
	return i18n.EN
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

func GetCallbackData(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callbackDataKey{}).(string)
	return v, ok
}
