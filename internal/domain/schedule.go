package domain

import (
	"errors"
	"fmt"
	"time"
)

// ScheduleKind selects one of the two recurrence rules.
type ScheduleKind int

const (
	// KindInterval fires every fixed duration, stepping from the previous
	// next-fire instant.
	KindInterval ScheduleKind = iota
	// KindDaily fires once a day at a fixed wall-clock time.
	KindDaily
)

var (
	ErrBadInterval = errors.New("interval must be positive")
	ErrBadClock    = errors.New("clock time out of range")
)

// Schedule is a recurrence rule: either a fixed interval or a daily
// wall-clock time. The zero value is an interval rule with a zero
// interval, which Validate rejects.
type Schedule struct {
	Kind     ScheduleKind
	Interval time.Duration // KindInterval only
	Hour     int           // KindDaily only, 0..23
	Minute   int           // KindDaily only, 0..59
}

// Every builds an interval schedule.
func Every(d time.Duration) Schedule {
	return Schedule{Kind: KindInterval, Interval: d}
}

// DailyAt builds a daily schedule at the given local wall-clock time.
func DailyAt(hour, minute int) Schedule {
	return Schedule{Kind: KindDaily, Hour: hour, Minute: minute}
}

// Validate checks the rule's parameters.
func (s Schedule) Validate() error {
	switch s.Kind {
	case KindInterval:
		if s.Interval <= 0 {
			return ErrBadInterval
		}
	case KindDaily:
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return ErrBadClock
		}
	default:
		return fmt.Errorf("unknown schedule kind %d", s.Kind)
	}
	return nil
}

// Next computes the instant the schedule fires after the firing that was
// anchored at prev. Interval rules step from prev, not from now, so a
// pass that runs late fast-forwards one interval per pass until caught
// up. Daily rules take the nearest HH:MM strictly after now; an
// occurrence landing exactly on now counts as already passed.
func (s Schedule) Next(prev, now time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	if s.Kind == KindInterval {
		return prev.Add(s.Interval), nil
	}
	return s.nextDaily(now), nil
}

// First computes the initial next-fire instant when the schedule is
// created or replaced.
func (s Schedule) First(now time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	if s.Kind == KindInterval {
		return now.Add(s.Interval), nil
	}
	return s.nextDaily(now), nil
}

func (s Schedule) nextDaily(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Label renders the rule for lists and reminder headers.
func (s Schedule) Label() string {
	if s.Kind == KindDaily {
		return fmt.Sprintf("%02d:%02d (daily)", s.Hour, s.Minute)
	}
	return HumanizeInterval(s.Interval)
}
