package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func wholeMonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// PeriodCount returns the number of whole billing units between start and end.
// Unknown frequencies count months.
func PeriodCount(start, end time.Time, frequency string) int {
	start, end = dateOnly(start), dateOnly(end)
	if !end.After(start) {
		return 0
	}
	days := int(end.Sub(start).Hours() / 24)

	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case FrequencyDaily:
		return days
	case FrequencyWeekly:
		return days / 7
	case FrequencyYearly:
		return wholeMonthsBetween(start, end) / 12
	default:
		return wholeMonthsBetween(start, end)
	}
}

// CalculateRentalTotal derives a rental's contract amount:
// max(0, rent * periods - deposit), rounded to 2 places.
// Missing dates, end <= start or a non-positive rent yield zero.
func CalculateRentalTotal(start, end *time.Time, rentAmount, securityDeposit decimal.Decimal, frequency string) decimal.Decimal {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return decimal.Zero
	}
	if !rentAmount.IsPositive() {
		return decimal.Zero
	}
	if !dateOnly(*end).After(dateOnly(*start)) {
		return decimal.Zero
	}

	periods := decimal.NewFromInt(int64(PeriodCount(*start, *end, frequency)))
	total := rentAmount.Mul(periods).Sub(securityDeposit)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// AddOneMonth moves t forward a calendar month, clamping to the last day
// of the target month (Jan 31 -> Feb 28/29).
func AddOneMonth(t time.Time) time.Time {
	y, m, d := t.Date()
	firstOfNext := time.Date(y, m+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
