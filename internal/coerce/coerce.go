// Package coerce centralises the locale-aware string→number and string→date
// conversions used by the derivation layer. The source files mix Brazilian
// formatting (comma decimal point, period thousands separator, dd/mm/yyyy
// dates) with ISO forms, so every interpretation of a raw field goes through
// here instead of being repeated at each call site.
package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Number parses a possibly locale-formatted numeric string. When the value
// contains a comma it is treated as the decimal separator and periods as
// thousands separators; otherwise the value is parsed as a plain float.
// Stray currency symbols and whitespace are ignored.
func Number(raw string) (float64, bool) {
	cleaned := clean(raw)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Decimal parses a currency amount into a decimal value. Used for volume
// aggregation where float accumulation error is unwelcome.
func Decimal(raw string) (decimal.Decimal, bool) {
	cleaned := clean(raw)
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// Date parses an ISO or Brazilian date string, truncated to calendar-date
// granularity so comparisons are not sensitive to time of day.
func Date(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), true
		}
	}
	return time.Time{}, false
}

// Today returns the current calendar date in UTC.
func Today() time.Time {
	return truncate(time.Now().UTC())
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
