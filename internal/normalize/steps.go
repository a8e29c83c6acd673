package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Layouts tried after the configured one, covering the date shapes banks
// commonly export without declaring.
var fallbackLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

var titleCaser = cases.Title(language.Und)

// fixDate parses a raw date cell into ISO-8601, or "" when unparseable.
func fixDate(raw, layout string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	layouts := fallbackLayouts
	if layout != "" {
		layouts = append([]string{layout}, fallbackLayouts...)
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// cleanMoney scrubs a monetary cell: commas become dots, every dot but the
// last is dropped (thousands separators), anything outside digits, "-" and
// "." is removed. The cleaned value is parsed as a decimal; an empty or
// unparseable cell yields zero with ok=false.
func cleanMoney(raw string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(raw, ",", ".")
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = strings.ReplaceAll(s[:i], ".", "") + s[i:]
	}
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	v, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// cleanString normalizes a payee or memo: title case, non-alphanumerics
// replaced with spaces, whitespace runs collapsed, ends trimmed.
func cleanString(raw string) string {
	s := titleCaser.String(raw)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
