package core

import (
	"errors"
	"strings"
	"time"
)

// dateLayouts lists the formats ledger stores hand back. Day/month/year comes
// first because spreadsheet locales in the region emit it.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006, 15:04:05",
	"2/1/2006",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses s in loc trying every supported layout in order.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(arabicDigits.Replace(s))
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// FormatDate renders the calendar date as day/month/year.
func FormatDate(t time.Time) string {
	return t.Format("2/1/2006")
}

// civilDay encodes the calendar date of t in its own location as yyyymmdd.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
