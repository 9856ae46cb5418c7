package i18n

import "strings"

type Lang string

const (
	RU Lang = "ru"
	EN Lang = "en"
)

// FromLanguageCode maps a Telegram language code to a supported language.
// Russian-speaking locales of the region get Russian.
func FromLanguageCode(code string) Lang {
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(code, "ru"), strings.HasPrefix(code, "uz"),
		strings.HasPrefix(code, "kk"), strings.HasPrefix(code, "ky"), strings.HasPrefix(code, "tg"):
		return RU
	default:
		return EN
	}
}

func Parse(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ru":
		return RU
	default:
		return EN
	}
}

// Pick returns the variant for l.
func (l Lang) Pick(ru, en string) string {
	if l == RU {
		return ru
	}
	return en
}
