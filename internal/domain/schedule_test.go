package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNext_IntervalStepsFromAnchor(t *testing.T) {
	s := Every(time.Minute)
	anchor := time.UnixMilli(0).UTC()

	// Each advance moves exactly one interval from the previous instant,
	// no matter how late the pass actually ran.
	prev := anchor
	for k := 1; k <= 5; k++ {
		late := prev.Add(45 * time.Minute) // pass runs way behind
		next, err := s.Next(prev, late)
		if err != nil {
			t.Fatalf("advance %d: %v", k, err)
		}
		want := anchor.Add(time.Duration(k) * time.Minute)
		if !next.Equal(want) {
			t.Fatalf("advance %d: want %v, got %v", k, want, next)
		}
		prev = next
	}
}

func TestNext_IntervalRejectsNonPositive(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := Every(d).Next(time.Now(), time.Now()); !errors.Is(err, ErrBadInterval) {
			t.Fatalf("interval %v: want ErrBadInterval, got %v", d, err)
		}
	}
}

func TestNext_DailyStrictlyAfterNow(t *testing.T) {
	s := DailyAt(9, 0)
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before today's occurrence",
			time.Date(2025, time.May, 5, 7, 30, 0, 0, time.UTC),
			time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC),
		},
		{
			"after today's occurrence",
			time.Date(2025, time.May, 5, 9, 0, 0, int(time.Millisecond), time.UTC),
			time.Date(2025, time.May, 6, 9, 0, 0, 0, time.UTC),
		},
		{
			"exactly on the occurrence rolls forward",
			time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC),
			time.Date(2025, time.May, 6, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, c := range cases {
		next, err := s.Next(time.Time{}, c.now)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !next.Equal(c.want) {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, next)
		}
		if !next.After(c.now) {
			t.Fatalf("%s: next %v is not strictly after now %v", c.name, next, c.now)
		}
	}
}

func TestNext_DailyRejectsBadClock(t *testing.T) {
	for _, s := range []Schedule{DailyAt(24, 0), DailyAt(-1, 0), DailyAt(9, 60)} {
		if _, err := s.Next(time.Time{}, time.Now()); !errors.Is(err, ErrBadClock) {
			t.Fatalf("%+v: want ErrBadClock, got %v", s, err)
		}
	}
}

func TestFirst(t *testing.T) {
	now := time.Date(2025, time.May, 5, 10, 15, 0, 0, time.UTC)

	next, err := Every(30 * time.Minute).First(now)
	if err != nil {
		t.Fatal(err)
	}
	if want := now.Add(30 * time.Minute); !next.Equal(want) {
		t.Fatalf("interval first: want %v, got %v", want, next)
	}

	next, err = DailyAt(10, 15).First(now)
	if err != nil {
		t.Fatal(err)
	}
	if want := now.AddDate(0, 0, 1); !next.Equal(want) {
		t.Fatalf("daily first on the dot: want %v, got %v", want, next)
	}
}

func TestLabel(t *testing.T) {
	if got := DailyAt(9, 5).Label(); got != "09:05 (daily)" {
		t.Fatalf("daily label: got %q", got)
	}
	if got := Every(3 * time.Hour).Label(); got != "3 h" {
		t.Fatalf("interval label: got %q", got)
	}
	if got := Every(24 * time.Hour).Label(); got != "1 d" {
		t.Fatalf("24h label: got %q", got)
	}
}

func TestHumanizeInterval(t *testing.T) {
	cases := map[time.Duration]string{
		45 * time.Second: "45 sec",
		30 * time.Minute: "30 min",
		90 * time.Minute: "1 h",
		10 * time.Hour:   "10 h",
		48 * time.Hour:   "2 d",
	}
	for d, want := range cases {
		if got := HumanizeInterval(d); got != want {
			t.Fatalf("%v: want %q, got %q", d, want, got)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	s, err := ParseClockTime("16:45")
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != KindDaily || s.Hour != 16 || s.Minute != 45 {
		t.Fatalf("got %+v", s)
	}
	for _, bad := range []string{"", "1645", "25:00", "9:99", "a:b"} {
		if _, err := ParseClockTime(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
