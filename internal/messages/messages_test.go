package messages

import (
	"strings"
	"testing"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/BatmanBruc/neural-bot/internal/i18n"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		v    int64
		lang i18n.Lang
		want string
	}{
		{0, i18n.RU, "0 сум"},
		{999, i18n.RU, "999 сум"},
		{15000, i18n.RU, "15,000 сум"},
		{350000, i18n.EN, "350,000 UZS"},
		{1234567, i18n.RU, "1,234,567 сум"},
		{-45000, i18n.RU, "-45,000 сум"},
	}
	for _, tt := range tests {
		if got := Amount(tt.lang, tt.v); got != tt.want {
			t.Errorf("Amount(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	if got := Split("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split: %q", got)
	}

	text := strings.Repeat("строка ответа\n", 700)
	parts := Split(text, MaxMessageLength)
	if len(parts) < 2 {
		t.Fatalf("expected several parts, got %d", len(parts))
	}
	if strings.Join(parts, "") != text {
		t.Fatal("parts do not reassemble the text")
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > MaxMessageLength {
			t.Errorf("part %d has %d runes", i, n)
		}
		if i < len(parts)-1 && !strings.HasSuffix(p, "\n") {
			t.Errorf("part %d not cut at a line break", i)
		}
	}

	solid := strings.Repeat("x", 25)
	parts = Split(solid, 10)
	if len(parts) != 3 || parts[2] != "xxxxx" {
		t.Errorf("hard split: %q", parts)
	}
}

func TestSplitCountsUTF16Units(t *testing.T) {
	text := strings.Repeat("😀", 3000) + "\n" + strings.Repeat("ok ", 100)
	parts := Split(text, MaxMessageLength)
	if len(parts) < 2 {
		t.Fatalf("expected several parts, got %d", len(parts))
	}
	if strings.Join(parts, "") != text {
		t.Fatal("parts do not reassemble the text")
	}
	for i, p := range parts {
		if n := len(utf16.Encode([]rune(p))); n > MaxMessageLength {
			t.Errorf("part %d has %d UTF-16 units", i, n)
		}
	}
	if got := len(utf16.Encode([]rune(parts[0]))); got != 4096 {
		t.Errorf("first part: got %d units, want 4096", got)
	}

	if got := Split("😀😀😀", 4); len(got) != 2 || got[0] != "😀😀" || got[1] != "😀" {
		t.Errorf("surrogate pairs split: %q", got)
	}
}

func TestEscape(t *testing.T) {
	if got := Escape(` <b>"Tom" & 'Jerry'</b> `); got != "&lt;b&gt;&quot;Tom&quot; &amp; &#39;Jerry&#39;&lt;/b&gt;" {
		t.Errorf("got %q", got)
	}
}

func TestProfileShowsUnlimitedAndExpiry(t *testing.T) {
	exp := time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC)
	text := Profile(i18n.EN, ProfileView{
		UserID:       5,
		Name:         "<Ann>",
		RegisteredAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Unlimited:    true,
		ExpiresAt:    &exp,
	})
	for _, want := range []string{"∞", "01.05.2026 18:30", "02.01.2026", "&lt;Ann&gt;"} {
		if !strings.Contains(text, want) {
			t.Errorf("profile missing %q:\n%s", want, text)
		}
	}

	text = Profile(i18n.RU, ProfileView{UserID: 5, Remaining: 3})
	if !strings.Contains(text, "Осталось сегодня: 3") || !strings.Contains(text, "Нет подписки") {
		t.Errorf("free profile:\n%s", text)
	}
}
