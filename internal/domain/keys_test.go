package domain

import (
	"testing"
	"time"
)

func TestParseDateOnlyFormats(t *testing.T) {
	cases := []struct {
		in    string
		ok    bool
		year  int
		month time.Month
		day   int
	}{
		{"2026-03-15", true, 2026, time.March, 15},
		{"15/03/2026", true, 2026, time.March, 15},
		{"2026-03-15T10:30:00Z", true, 2026, time.March, 15},
		{"  2026-03-15  ", true, 2026, time.March, 15},
		{"", false, 0, 0, 0},
		{"not a date", false, 0, 0, 0},
		{"15-03-2026", false, 0, 0, 0},
	}
	for _, c := range cases {
		got, ok := ParseDateOnly(c.in)
		if ok != c.ok {
			t.Errorf("ParseDateOnly(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		y, m, d := got.Date()
		if y != c.year || m != c.month || d != c.day {
			t.Errorf("ParseDateOnly(%q) = %v, want %d-%02d-%02d", c.in, got, c.year, c.month, c.day)
		}
	}
}

func TestDayKey(t *testing.T) {
	now := time.Date(2026, time.February, 3, 9, 0, 0, 0, time.Local)
	if got := DayKey(now); got != "2026-02-03" {
		t.Fatalf("DayKey = %q", got)
	}
}

func TestWeekKey(t *testing.T) {
	cases := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2026, time.January, 1, 12, 0, 0, 0, time.Local), "2026-W01"},
		{time.Date(2026, time.January, 7, 12, 0, 0, 0, time.Local), "2026-W01"},
		{time.Date(2026, time.January, 8, 12, 0, 0, 0, time.Local), "2026-W02"},
		{time.Date(2026, time.December, 31, 12, 0, 0, 0, time.Local), "2026-W53"},
	}
	for _, c := range cases {
		if got := WeekKey(c.day); got != c.want {
			t.Errorf("WeekKey(%v) = %q, want %q", c.day, got, c.want)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	in := time.Date(2026, time.May, 10, 8, 15, 0, 0, time.Local)
	end := EndOfDay(in)
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Fatalf("EndOfDay = %v", end)
	}
	if end.Day() != 10 {
		t.Fatalf("EndOfDay changed the day: %v", end)
	}
}

func TestIsPriorityActive(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.Local)

	q := Question{Priority: true, PriorityUntil: "2026-06-15"}
	if !IsPriorityActive(q, now) {
		t.Fatalf("priority should hold through the whole end date")
	}
	if !IsPriorityActive(q, EndOfDay(now)) {
		t.Fatalf("priority should hold at end of day")
	}
	if IsPriorityActive(q, now.AddDate(0, 0, 1)) {
		t.Fatalf("priority should lapse the next day")
	}

	if IsPriorityActive(Question{Priority: true}, now) {
		t.Fatalf("priority without an end date should be inactive")
	}
	if IsPriorityActive(Question{Priority: false, PriorityUntil: "2099-01-01"}, now) {
		t.Fatalf("unprioritized question should never be boosted")
	}
}
