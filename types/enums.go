package types

type Plan string

const (
	PlanWeek  Plan = "week"
	PlanMonth Plan = "month"
	PlanYear  Plan = "year"
)

var Plans = []Plan{PlanWeek, PlanMonth, PlanYear}

func (p Plan) Valid() bool {
	switch p {
	case PlanWeek, PlanMonth, PlanYear:
		return true
	default:
		return false
	}
}

type Method string

const (
	MethodClick Method = "click"
	MethodPayme Method = "payme"
	MethodCard  Method = "card"
)

var Methods = []Method{MethodClick, MethodPayme, MethodCard}

func (m Method) Valid() bool {
	switch m {
	case MethodClick, MethodPayme, MethodCard:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentCreated              PaymentStatus = "created"
	PaymentAwaitingConfirmation PaymentStatus = "awaiting_confirmation"
	PaymentConfirmed            PaymentStatus = "confirmed"
	PaymentRejected             PaymentStatus = "rejected"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentConfirmed || s == PaymentRejected
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
