// Package display renders Gate data for the terminal.
package display

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder stands in for any missing value.
const Placeholder = "--"

var printer = message.NewPrinter(language.AmericanEnglish)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatValue renders nil and "" as the placeholder and numbers with digit
// grouping.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		if x == "" {
			return Placeholder
		}
		return x
	case *string:
		if x == nil {
			return Placeholder
		}
		return FormatValue(*x)
	case *int:
		if x == nil {
			return Placeholder
		}
		return printer.Sprintf("%d", *x)
	case *float64:
		if x == nil {
			return Placeholder
		}
		return FormatValue(*x)
	case int:
		return printer.Sprintf("%d", x)
	case int64:
		return printer.Sprintf("%d", x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return printer.Sprintf("%d", int64(x))
		}
		return strings.TrimRight(strings.TrimRight(printer.Sprintf("%.3f", x), "0"), ".")
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return printer.Sprintf("%v", x)
	}
}

// FormatDate renders a timestamp like "Mar 1, 2024, 10:00 AM" in the
// timestamp's own offset. Unparseable input comes back unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Placeholder
	}
	t, ok := ParseTime(raw)
	if !ok {
		return raw
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}

func ParseTime(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatCurrency renders whole US dollars, for example "$15,000".
func FormatCurrency(amount *float64) string {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return Placeholder
	}
	rounded := int64(math.Round(*amount))
	if rounded < 0 {
		return "-$" + printer.Sprintf("%d", -rounded)
	}
	return "$" + printer.Sprintf("%d", rounded)
}

// FormatPercent renders a rate such as 0.034 or 3.4 as "3.4%".
func FormatPercent(rate *float64) string {
	if rate == nil {
		return Placeholder
	}
	v := *rate
	if math.Abs(v) <= 1 {
		v *= 100
	}
	return strings.TrimRight(strings.TrimRight(printer.Sprintf("%.1f", v), "0"), ".") + "%"
}
