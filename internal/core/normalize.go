package core

import (
	"strings"
	"time"
)

// dateLayouts is the accepted date contract, tried in order. ISO dates may
// omit zero padding ("2024-1-5"). Slash dates are
// month-first, matching how the upstream sheets are written. Everything is
// parsed in UTC so a run never depends on the host time zone.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
}

// ParseDate parses raw against the date contract and returns the calendar
// date at UTC midnight.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// NormalizeDate returns the YYYY-MM-DD form of raw, or "" when raw is not a
// valid calendar date.
func NormalizeDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return t.Format(time.DateOnly)
}

// NormalizeShopName trims, collapses internal whitespace and uppercases a
// shop name. It is the only form used to compare or group shops.
func NormalizeShopName(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// NormalizeKey canonicalizes a column header so lookups survive stray
// spaces and inconsistent casing in the sheet.
func NormalizeKey(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// NormalizeMode canonicalizes the MODE tag of a settlement/top-up row.
func NormalizeMode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsAll reports whether a filter value is the "match everything" sentinel.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "ALL")
}
