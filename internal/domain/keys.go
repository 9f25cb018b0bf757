package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	frDateRe  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// ParseDateOnly accepts YYYY-MM-DD, DD/MM/YYYY, or a full timestamp and
// returns the date in local time.
func ParseDateOnly(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err == nil {
			return t, true
		}
	}
	if m := frDateRe.FindStringSubmatch(s); m != nil {
		t, err := time.ParseInLocation("02/01/2006", s, time.Local)
		if err == nil {
			return t, true
		}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// DayKey formats the daily quota key (YYYY-MM-DD, local time).
func DayKey(now time.Time) string {
	return now.Format("2006-01-02")
}

// WeekKey formats the weekly quota key as YYYY-Www where the week number is
// ceil((daysSinceJan1+1)/7). Not ISO weeks: the formula matches the keys
// already persisted in cagnotte documents.
func WeekKey(now time.Time) string {
	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	days := float64(now.Sub(jan1)) / float64(24*time.Hour)
	week := int(math.Ceil((days + 1) / 7))
	return fmt.Sprintf("%d-W%02d", now.Year(), week)
}

// IsPriorityActive reports whether a question currently gets the weighted
// 1-in-6 draw. Requires a parseable PriorityUntil; priority with no end date
// is treated as inactive, matching how questions are authored.
func IsPriorityActive(q Question, now time.Time) bool {
	if !q.Priority {
		return false
	}
	until, ok := ParseDateOnly(q.PriorityUntil)
	if !ok {
		return false
	}
	return !now.After(EndOfDay(until))
}
