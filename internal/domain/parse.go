package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrBadClockFormat = errors.New("expected HH:MM")

// HumanizeInterval renders a duration in the coarsest sensible unit.
func HumanizeInterval(d time.Duration) string {
	sec := int(d.Seconds())
	if sec < 60 {
		return fmt.Sprintf("%d sec", sec)
	}
	min := sec / 60
	if min < 60 {
		return fmt.Sprintf("%d min", min)
	}
	hr := min / 60
	if hr < 24 {
		return fmt.Sprintf("%d h", hr)
	}
	return fmt.Sprintf("%d d", hr/24)
}

// ParseClockTime parses "HH:MM" (also "H:MM") into a daily schedule.
func ParseClockTime(s string) (Schedule, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Schedule{}, ErrBadClockFormat
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Schedule{}, ErrBadClockFormat
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Schedule{}, ErrBadClockFormat
	}
	sc := DailyAt(h, m)
	if err := sc.Validate(); err != nil {
		return Schedule{}, err
	}
	return sc, nil
}

// ParseIndex parses a 1-based list position entered by the user and
// returns the 0-based index, or -1 if the input is not a valid position
// within a list of length n.
func ParseIndex(s string, n int) int {
	num, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || num < 1 || num > n {
		return -1
	}
	return num - 1
}
