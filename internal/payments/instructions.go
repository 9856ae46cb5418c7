package payments

import (
	"strings"

	"github.com/BatmanBruc/neural-bot/types"
)

// Destinations are where buyers send money, as configured.
type Destinations struct {
	ClickServiceID string
	CardNumber     string
	CardBank       string
	CardHolder     string
}

// Instruction carries everything needed to render a payment request.
type Instruction struct {
	PaymentID string
	Method    types.Method
	Amount    int64
	// Details are the destination lines for the method, copied from config.
	Details []string
}

func (d Destinations) Instructions(method types.Method, amount int64, paymentID string) Instruction {
	in := Instruction{PaymentID: paymentID, Method: method, Amount: amount}
	switch method {
	case types.MethodClick:
		in.Details = nonEmpty("Click", d.ClickServiceID)
	case types.MethodPayme:
		in.Details = []string{"Payme"}
	case types.MethodCard:
		in.Details = nonEmpty(d.CardNumber, d.CardBank, d.CardHolder)
	}
	return in
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
