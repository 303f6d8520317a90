package stock

import (
	"strings"
	"time"
)

// =============================================================================
// BUCKET POLICIES - Map a sale timestamp to a report key
// =============================================================================

// BucketFunc maps a timestamp to a bucket key for RevenueByPeriod.
type BucketFunc func(t time.Time) string

// MonthKey buckets by calendar month, e.g. "2024-03".
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// DayKey buckets by calendar day, e.g. "2024-03-15".
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// YearKey buckets by calendar year, e.g. "2024".
func YearKey(t time.Time) string { return t.UTC().Format("2006") }

// MonthStyle selects how month labels are written.
type MonthStyle string

const (
	MonthStyleKey   MonthStyle = "key"   // 2024-03
	MonthStyleLong  MonthStyle = "long"  // March
	MonthStyleShort MonthStyle = "short" // Mar
)

// Locale selects the language of month labels.
type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocalePortuguese Locale = "pt-BR"
)

var monthNames = map[Locale][12]string{
	LocaleEnglish: {
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	LocalePortuguese: {
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
	},
}

// MonthLabels returns a bucket policy that labels sales by month name.
//
// Long and short labels carry no year, so the same month of different
// years shares a bucket. Use MonthStyleKey to keep years apart.
// Unknown locales fall back to English.
func MonthLabels(locale Locale, style MonthStyle) BucketFunc {
	if style == MonthStyleKey || style == "" {
		return MonthKey
	}
	names, ok := monthNames[locale]
	if !ok {
		names = monthNames[LocaleEnglish]
	}
	return func(t time.Time) string {
		name := names[t.UTC().Month()-1]
		if style == MonthStyleShort {
			return shortMonth(name)
		}
		return name
	}
}

// ParseMonthStyle accepts "key", "long" or "short" (case-insensitive).
func ParseMonthStyle(s string) (MonthStyle, bool) {
	switch MonthStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", MonthStyleKey:
		return MonthStyleKey, true
	case MonthStyleLong:
		return MonthStyleLong, true
	case MonthStyleShort:
		return MonthStyleShort, true
	}
	return "", false
}

// ParseLocale accepts "en" or "pt-BR" (case-insensitive, "pt" allowed).
func ParseLocale(s string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en":
		return LocaleEnglish, true
	case "pt", "pt-br":
		return LocalePortuguese, true
	}
	return "", false
}

func shortMonth(name string) string {
	r := []rune(name)
	if len(r) <= 3 {
		return name
	}
	return string(r[:3])
}
