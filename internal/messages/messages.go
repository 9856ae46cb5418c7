package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/BatmanBruc/neural-bot/internal/i18n"
	"github.com/BatmanBruc/neural-bot/types"
)

const (
	ParseModeHTML = "HTML"
	// MaxMessageLength is Telegram's limit for a single text message.
	MaxMessageLength = 4096

	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func Title(text string) string {
	return fmt.Sprintf("✨ <b>%s</b>", Escape(text))
}

// Amount renders sums the way prices are quoted locally: 15,000 сум.
func Amount(lang i18n.Lang, v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + " " + lang.Pick("сум", "UZS")
}

func PlanName(lang i18n.Lang, plan types.Plan) string {
	switch plan {
	case types.PlanWeek:
		return lang.Pick("Неделя", "Week")
	case types.PlanMonth:
		return lang.Pick("Месяц", "Month")
	case types.PlanYear:
		return lang.Pick("Год", "Year")
	default:
		return string(plan)
	}
}

func MethodName(lang i18n.Lang, method types.Method) string {
	switch method {
	case types.MethodClick:
		return "Click"
	case types.MethodPayme:
		return "Payme"
	case types.MethodCard:
		return lang.Pick("Карта (Uzcard/Humo)", "Card (Uzcard/Humo)")
	default:
		return string(method)
	}
}

// Split cuts text into chunks Telegram accepts, preferring line breaks.
// The limit is in UTF-16 code units, the unit Telegram counts in.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if utf16Len(text) <= limit {
		return []string{text}
	}
	runes := []rune(text)
	var parts []string
	for len(runes) > 0 {
		units, end, lineCut := 0, 0, 0
		for end < len(runes) {
			n := utf16.RuneLen(runes[end])
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				break
			}
			units += n
			end++
			if runes[end-1] == '\n' && units > limit/2 {
				lineCut = end
			}
		}
		if end == len(runes) {
			parts = append(parts, string(runes))
			break
		}
		cut := end
		if lineCut > 0 {
			cut = lineCut
		}
		if cut == 0 {
			cut = 1
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func ErrorDefault(lang i18n.Lang) string {
	return lang.Pick(
		"🚫 <b>Ошибка</b>\nПопробуйте ещё раз.",
		"🚫 <b>Error</b>\nPlease try again.",
	)
}

// ErrorToast is ErrorDefault for callback alerts, which take no markup.
func ErrorToast(lang i18n.Lang) string {
	return lang.Pick("Ошибка, попробуйте ещё раз", "Error, please try again")
}

func ErrorAI(lang i18n.Lang) string {
	return lang.Pick(
		"❌ <b>Не удалось получить ответ</b>\nЗапрос не списан. Попробуйте ещё раз или обратитесь в поддержку.",
		"❌ <b>Could not get an answer</b>\nThe request was not charged. Try again or contact support.",
	)
}

func ErrorUnsupportedMessageType(lang i18n.Lang) string {
	return lang.Pick(
		"🤖 <b>Я так не умею</b>\nОтправьте текстовое сообщение.",
		"🤖 <b>I can't handle that</b>\nPlease send a text message.",
	)
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	return lang.Pick("❓ <b>Команда не найдена</b>", "❓ <b>Unknown command</b>")
}

func NoAccess(lang i18n.Lang) string {
	return lang.Pick("Нет доступа", "Access denied")
}

func StartWelcome(lang i18n.Lang, name string, free int) string {
	if strings.TrimSpace(name) == "" {
		name = lang.Pick("друг", "friend")
	}
	return lang.Pick(
		fmt.Sprintf("👋 <b>Привет, %s!</b>\nЯ NeuralBot, AI-ассистент. Спросите меня о чём угодно.\n\n"+
			"🆓 Бесплатно: <b>%d</b> запросов в день\n💎 Premium: без ограничений\n🎁 Приглашайте друзей и получайте бонусные запросы", Escape(name), free),
		fmt.Sprintf("👋 <b>Hi, %s!</b>\nI'm NeuralBot, an AI assistant. Ask me anything.\n\n"+
			"🆓 Free: <b>%d</b> requests a day\n💎 Premium: unlimited\n🎁 Invite friends to earn bonus requests", Escape(name), free),
	)
}

func Help(lang i18n.Lang, free, bonus int) string {
	return lang.Pick(
		fmt.Sprintf("ℹ️ <b>Как пользоваться</b>\nПросто напишите вопрос, и я отвечу.\n\n"+
			"<b>Команды</b>\n/start · главное меню\n/profile · профиль и лимиты\n/premium · подписка\n"+
			"/referral · пригласить друга\n/clear · очистить историю диалога\n/help · справка\n\n"+
			"🆓 %d бесплатных запросов в день, +%d за каждого приглашённого друга.", free, bonus),
		fmt.Sprintf("ℹ️ <b>How to use</b>\nJust write your question and I'll answer.\n\n"+
			"<b>Commands</b>\n/start · main menu\n/profile · profile and limits\n/premium · subscription\n"+
			"/referral · invite a friend\n/clear · clear dialogue history\n/help · help\n\n"+
			"🆓 %d free requests a day, +%d for every friend you invite.", free, bonus),
	)
}

func HistoryCleared(lang i18n.Lang) string {
	return lang.Pick(
		"🗑 История диалога очищена. Начнём с чистого листа!",
		"🗑 Dialogue history cleared. Let's start fresh!",
	)
}

type ProfileView struct {
	UserID       int64
	Name         string
	RegisteredAt time.Time
	TotalQueries int
	Unlimited    bool
	Remaining    int
	Bonus        int
	ExpiresAt    *time.Time
	Referrals    int
}

func Profile(lang i18n.Lang, v ProfileView) string {
	remaining := strconv.Itoa(v.Remaining)
	if v.Unlimited {
		remaining = "∞"
	}
	status := lang.Pick("❌ Нет подписки", "❌ No subscription")
	if v.ExpiresAt != nil {
		status = lang.Pick("💎 Premium активна", "💎 Premium active") +
			"\n" + lang.Pick("📅 Действует до: ", "📅 Valid until: ") + v.ExpiresAt.Format(dateTimeLayout)
	}
	var b strings.Builder
	b.WriteString(lang.Pick("👤 <b>Профиль</b>\n\n", "👤 <b>Profile</b>\n\n"))
	fmt.Fprintf(&b, "🆔 <code>%d</code>\n", v.UserID)
	if name := strings.TrimSpace(v.Name); name != "" {
		fmt.Fprintf(&b, "%s %s\n", lang.Pick("📛 Имя:", "📛 Name:"), Escape(name))
	}
	fmt.Fprintf(&b, "%s %s\n", lang.Pick("📆 Регистрация:", "📆 Registered:"), v.RegisteredAt.Format(dateLayout))
	fmt.Fprintf(&b, "%s %d\n", lang.Pick("📊 Всего запросов:", "📊 Total requests:"), v.TotalQueries)
	fmt.Fprintf(&b, "%s %s\n", lang.Pick("⚡ Осталось сегодня:", "⚡ Left today:"), remaining)
	fmt.Fprintf(&b, "%s %d\n", lang.Pick("🎁 Бонусные запросы:", "🎁 Bonus requests:"), v.Bonus)
	fmt.Fprintf(&b, "%s %d\n\n", lang.Pick("👥 Приглашено друзей:", "👥 Friends invited:"), v.Referrals)
	b.WriteString(status)
	return b.String()
}

func ProfileNotFound(lang i18n.Lang) string {
	return lang.Pick("Профиль не найден. Используйте /start", "Profile not found. Use /start")
}

type TierView struct {
	Plan  types.Plan
	Price int64
	Days  int
}

func PremiumInfo(lang i18n.Lang, tiers []TierView, active *time.Time) string {
	var b strings.Builder
	b.WriteString(lang.Pick("💎 <b>NeuralBot Premium</b>\n\n", "💎 <b>NeuralBot Premium</b>\n\n"))
	b.WriteString(lang.Pick(
		"✅ Безлимитные запросы\n✅ Приоритетные ответы\n✅ Длинные диалоги\n\n",
		"✅ Unlimited requests\n✅ Priority answers\n✅ Long dialogues\n\n",
	))
	for _, t := range tiers {
		fmt.Fprintf(&b, "🔹 %s · %s (%d %s)\n", PlanName(lang, t.Plan), Amount(lang, t.Price), t.Days, lang.Pick("дн.", "days"))
	}
	if active != nil {
		b.WriteString("\n")
		b.WriteString(lang.Pick("📅 Ваша подписка действует до ", "📅 Your subscription is valid until "))
		b.WriteString(active.Format(dateTimeLayout))
		b.WriteString(lang.Pick(". Новая покупка продлит доступ.", ". A new purchase extends access."))
	}
	b.WriteString("\n")
	b.WriteString(lang.Pick("Выберите тариф:", "Choose a plan:"))
	return b.String()
}

func ChooseMethod(lang i18n.Lang, plan types.Plan, amount int64) string {
	return lang.Pick(
		fmt.Sprintf("💳 <b>Оплата тарифа «%s»</b>\n\nСумма: <b>%s</b>\n\nВыберите способ оплаты:", PlanName(lang, plan), Amount(lang, amount)),
		fmt.Sprintf("💳 <b>Paying for the %s plan</b>\n\nAmount: <b>%s</b>\n\nChoose a payment method:", PlanName(lang, plan), Amount(lang, amount)),
	)
}

func PaymentInstructions(lang i18n.Lang, plan types.Plan, method types.Method, amount int64, paymentID string, details []string, support string) string {
	var b strings.Builder
	b.WriteString(lang.Pick("🧾 <b>Заказ создан</b>\n\n", "🧾 <b>Order created</b>\n\n"))
	fmt.Fprintf(&b, "%s <code>%s</code>\n", lang.Pick("🔢 Номер заказа:", "🔢 Order number:"), Escape(paymentID))
	fmt.Fprintf(&b, "%s %s\n", lang.Pick("📦 Тариф:", "📦 Plan:"), PlanName(lang, plan))
	fmt.Fprintf(&b, "%s <b>%s</b>\n", lang.Pick("💰 Сумма:", "💰 Amount:"), Amount(lang, amount))
	fmt.Fprintf(&b, "%s %s\n\n", lang.Pick("💳 Способ:", "💳 Method:"), MethodName(lang, method))
	if len(details) > 0 {
		b.WriteString(lang.Pick("<b>Реквизиты:</b>\n", "<b>Payment details:</b>\n"))
		for _, d := range details {
			fmt.Fprintf(&b, "<code>%s</code>\n", Escape(d))
		}
		b.WriteString("\n")
	}
	b.WriteString(lang.Pick(
		"Укажите номер заказа в комментарии к платежу. После оплаты нажмите «✅ Я оплатил».",
		"Put the order number in the payment comment. After paying, press \"✅ I have paid\".",
	))
	if s := strings.TrimPrefix(strings.TrimSpace(support), "@"); s != "" {
		fmt.Fprintf(&b, "\n\n%s @%s", lang.Pick("Поддержка:", "Support:"), Escape(s))
	}
	return b.String()
}

func PaymentSubmitted(lang i18n.Lang, paymentID string, amount int64) string {
	return lang.Pick(
		fmt.Sprintf("⏳ <b>Заявка на оплату отправлена!</b>\n\n🔢 Номер заказа: <code>%s</code>\n💰 Сумма: %s\n\nОжидайте подтверждения. Обычно это занимает 5-15 минут.",
			Escape(paymentID), Amount(lang, amount)),
		fmt.Sprintf("⏳ <b>Payment request sent!</b>\n\n🔢 Order number: <code>%s</code>\n💰 Amount: %s\n\nPlease wait for confirmation. It usually takes 5-15 minutes.",
			Escape(paymentID), Amount(lang, amount)),
	)
}

func PaymentSubmittedToast(lang i18n.Lang) string {
	return lang.Pick("✅ Заявка отправлена!", "✅ Request sent!")
}

func PaymentNotFound(lang i18n.Lang) string {
	return lang.Pick("Платёж не найден", "Payment not found")
}

func PaymentAlreadySubmitted(lang i18n.Lang) string {
	return lang.Pick("Заявка по этому заказу уже отправлена", "This order has already been submitted")
}

type AdminPaymentView struct {
	PaymentID string
	UserID    int64
	Username  string
	FirstName string
	Plan      types.Plan
	Method    types.Method
	Amount    int64
	CreatedAt time.Time
}

// AdminPaymentRequest is always in Russian: the admin chat has one language.
func AdminPaymentRequest(v AdminPaymentView) string {
	lang := i18n.RU
	var b strings.Builder
	b.WriteString("💰 <b>Новая заявка на оплату</b>\n\n")
	fmt.Fprintf(&b, "🔢 Заказ: <code>%s</code>\n", Escape(v.PaymentID))
	fmt.Fprintf(&b, "👤 Пользователь: <code>%d</code>", v.UserID)
	if u := strings.TrimSpace(v.Username); u != "" {
		fmt.Fprintf(&b, " (@%s)", Escape(u))
	}
	if n := strings.TrimSpace(v.FirstName); n != "" {
		fmt.Fprintf(&b, " %s", Escape(n))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "📦 Тариф: %s\n", PlanName(lang, v.Plan))
	fmt.Fprintf(&b, "💳 Способ: %s\n", MethodName(lang, v.Method))
	fmt.Fprintf(&b, "💵 Сумма: <b>%s</b>\n", Amount(lang, v.Amount))
	fmt.Fprintf(&b, "🕐 Создан: %s\n\n", v.CreatedAt.Format(dateTimeLayout))
	b.WriteString("Проверьте поступление и подтвердите или отклоните.")
	return b.String()
}

func AdminConfirmedSuffix() string {
	return "\n\n✅ <b>ПОДТВЕРЖДЕНО</b>"
}

func AdminRejectedSuffix() string {
	return "\n\n❌ <b>ОТКЛОНЕНО</b>"
}

func AdminConfirmedToast() string { return "✅ Платёж подтверждён!" }

func AdminRejectedToast() string { return "❌ Платёж отклонён" }

func AdminAlreadyResolved() string {
	return "Платёж уже обработан или не найден"
}

func PaymentConfirmed(lang i18n.Lang, plan types.Plan, expiresAt time.Time) string {
	return lang.Pick(
		fmt.Sprintf("✅ <b>Оплата подтверждена!</b>\n\nВаша Premium подписка «%s» активирована.\n📅 Действует до: %s\n\nНаслаждайтесь безлимитным доступом! 🚀",
			PlanName(lang, plan), expiresAt.Format(dateTimeLayout)),
		fmt.Sprintf("✅ <b>Payment confirmed!</b>\n\nYour %s Premium subscription is active.\n📅 Valid until: %s\n\nEnjoy unlimited access! 🚀",
			PlanName(lang, plan), expiresAt.Format(dateTimeLayout)),
	)
}

func PaymentRejected(lang i18n.Lang, paymentID, support string) string {
	contact := ""
	if s := strings.TrimPrefix(strings.TrimSpace(support), "@"); s != "" {
		contact = " @" + Escape(s)
	}
	return lang.Pick(
		fmt.Sprintf("❌ <b>Оплата не подтверждена</b>\n\nНомер заказа: <code>%s</code>\n\nЕсли вы уверены, что оплатили, свяжитесь с поддержкой%s.", Escape(paymentID), contact),
		fmt.Sprintf("❌ <b>Payment not confirmed</b>\n\nOrder number: <code>%s</code>\n\nIf you are sure you paid, contact support%s.", Escape(paymentID), contact),
	)
}

func LimitReached(lang i18n.Lang, free, bonus int) string {
	return lang.Pick(
		fmt.Sprintf("⛔ <b>Лимит исчерпан</b>\n\nВы использовали %d бесплатных запросов на сегодня. Лимит обновится в полночь.\n\n"+
			"💎 Оформите Premium для безлимитного доступа\n🎁 или пригласите друга и получите +%d запросов", free, bonus),
		fmt.Sprintf("⛔ <b>Limit reached</b>\n\nYou have used your %d free requests for today. The limit resets at midnight.\n\n"+
			"💎 Get Premium for unlimited access\n🎁 or invite a friend to earn +%d requests", free, bonus),
	)
}

func ReferralInfo(lang i18n.Lang, link string, count, bonus int) string {
	return lang.Pick(
		fmt.Sprintf("🎁 <b>Пригласите друга</b>\n\nЗа каждого друга, который запустит бота по вашей ссылке, вы получите <b>+%d запросов</b>.\n\n"+
			"🔗 Ваша ссылка:\n<code>%s</code>\n\n👥 Приглашено: %d", bonus, Escape(link), count),
		fmt.Sprintf("🎁 <b>Invite a friend</b>\n\nFor every friend who starts the bot with your link you get <b>+%d requests</b>.\n\n"+
			"🔗 Your link:\n<code>%s</code>\n\n👥 Invited: %d", bonus, Escape(link), count),
	)
}

func ReferralCredited(lang i18n.Lang, bonus int) string {
	return lang.Pick(
		fmt.Sprintf("🎉 По вашей ссылке присоединился новый пользователь!\nВам начислено <b>+%d запросов</b>!", bonus),
		fmt.Sprintf("🎉 A new user joined with your link!\nYou received <b>+%d requests</b>!", bonus),
	)
}

func AdminPanel() string {
	return "🔐 <b>Админ панель</b>\n\n/stats · статистика\n/pending · заявки на оплату\n/grant &lt;user_id&gt; &lt;week|month|year&gt;\n/ban &lt;user_id&gt;\n/unban &lt;user_id&gt;"
}

func AdminStats(st *types.Stats) string {
	return fmt.Sprintf("📊 <b>Статистика</b>\n\n"+
		"👥 Всего пользователей: %d\n💎 Premium: %d\n📨 Запросов сегодня: %d\n"+
		"💰 Выручка за 30 дней: %s\n🆕 Новых сегодня: %d\n📅 Новых за неделю: %d",
		st.TotalUsers, st.PremiumUsers, st.TodayQueries, Amount(i18n.RU, st.MonthlyRevenue), st.NewToday, st.NewWeek)
}

func AdminPending(list []*types.Payment) string {
	if len(list) == 0 {
		return "📭 Нет заявок, ожидающих подтверждения"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ <b>Ожидают подтверждения: %d</b>\n\n", len(list))
	for _, p := range list {
		fmt.Fprintf(&b, "<code>%s</code> · %d · %s · %s\n", Escape(p.PaymentID), p.UserID, PlanName(i18n.RU, p.Plan), Amount(i18n.RU, p.Amount))
	}
	return b.String()
}

func AdminGrantUsage() string {
	return "Использование: /grant &lt;user_id&gt; &lt;week|month|year&gt;"
}

func AdminGrantDone(userID int64, plan types.Plan, expiresAt time.Time) string {
	return fmt.Sprintf("✅ Пользователю <code>%d</code> выдан тариф «%s» до %s", userID, PlanName(i18n.RU, plan), expiresAt.Format(dateTimeLayout))
}

func AdminBanUsage(cmd string) string {
	return fmt.Sprintf("Использование: /%s &lt;user_id&gt;", Escape(cmd))
}

func AdminBanDone(userID int64, banned bool) string {
	if banned {
		return fmt.Sprintf("🚫 Пользователь <code>%d</code> заблокирован", userID)
	}
	return fmt.Sprintf("✅ Пользователь <code>%d</code> разблокирован", userID)
}

func AdminUserNotFound(userID int64) string {
	return fmt.Sprintf("Пользователь <code>%d</code> не найден", userID)
}

func BtnPremium(lang i18n.Lang) string { return "💎 Premium" }
func BtnProfile(lang i18n.Lang) string { return lang.Pick("👤 Профиль", "👤 Profile") }
func BtnInvite(lang i18n.Lang) string { return lang.Pick("🎁 Пригласить друга", "🎁 Invite a friend") }
func BtnHelp(lang i18n.Lang) string { return lang.Pick("❓ Помощь", "❓ Help") }
func BtnPaid(lang i18n.Lang) string { return lang.Pick("✅ Я оплатил", "✅ I have paid") }
func BtnCancel(lang i18n.Lang) string { return lang.Pick("❌ Отмена", "❌ Cancel") }
func BtnBack(lang i18n.Lang) string { return lang.Pick("« Назад", "« Back") }
func BtnGetPremium(lang i18n.Lang) string {
	return lang.Pick("💎 Получить Premium", "💎 Get Premium")
}
func BtnConfirm() string { return "✅ Подтвердить" }
func BtnReject() string { return "❌ Отклонить" }
func BtnStats() string { return "📊 Статистика" }
func BtnPending() string { return "⏳ Заявки" }

func BtnPlan(lang i18n.Lang, t TierView) string {
	label := fmt.Sprintf("🔹 %s · %s", PlanName(lang, t.Plan), Amount(lang, t.Price))
	switch t.Plan {
	case types.PlanMonth:
		label += lang.Pick(" (выгодно!)", " (best value!)")
	case types.PlanYear:
		label += lang.Pick(" (супер!)", " (super deal!)")
	}
	return label
}
