// Package cycle derives rotation state for a started savings group from its
// start date and payout interval. Every function is pure; callers pass "today"
// as a civil date produced by Today.
package cycle

import (
	"errors"
	"time"
)

var (
	ErrNotStarted      = errors.New("group has not started")
	ErrInvalidInterval = errors.New("payout interval must be positive")
	ErrInvalidMembers  = errors.New("member count must be positive")
	ErrInvalidCycle    = errors.New("cycle number must be positive")
)

const day = 24 * time.Hour

// Today returns the calendar date of now in loc, expressed as midnight UTC so
// that date arithmetic is free of DST shifts.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DaysSinceStart(start, today time.Time) (int, error) {
	if start.IsZero() {
		return 0, ErrNotStarted
	}
	s, t := Date(start), Date(today)
	if t.Before(s) {
		return 0, ErrNotStarted
	}
	return int(t.Sub(s) / day), nil
}

// IsPayoutDay reports whether today falls on a cycle boundary. The start date
// itself is the payout day of cycle 1.
func IsPayoutDay(start time.Time, interval int, today time.Time) (bool, error) {
	if interval <= 0 {
		return false, ErrInvalidInterval
	}
	days, err := DaysSinceStart(start, today)
	if err != nil {
		return false, err
	}
	return days%interval == 0, nil
}

// CurrentCycleNumber is 1-based.
func CurrentCycleNumber(start time.Time, interval int, today time.Time) (int, error) {
	if interval <= 0 {
		return 0, ErrInvalidInterval
	}
	days, err := DaysSinceStart(start, today)
	if err != nil {
		return 0, err
	}
	return days/interval + 1, nil
}

// PositionForCycle maps a cycle onto the rotation; positions wrap after every
// member has been paid once.
func PositionForCycle(cycleNumber, members int) (int, error) {
	if cycleNumber <= 0 {
		return 0, ErrInvalidCycle
	}
	if members <= 0 {
		return 0, ErrInvalidMembers
	}
	return (cycleNumber-1)%members + 1, nil
}

// NextPayoutDate returns the first payout day strictly after today.
func NextPayoutDate(start time.Time, interval int, today time.Time) (time.Time, error) {
	cycleNumber, err := CurrentCycleNumber(start, interval, today)
	if err != nil {
		return time.Time{}, err
	}
	return Date(start).AddDate(0, 0, cycleNumber*interval), nil
}

// State bundles the derived values shown on dashboards and used by the
// payout scheduler, so both compute them the same way.
type State struct {
	DaysSinceStart int
	CycleNumber    int
	Position       int
	IsPayoutDay    bool
	NextPayoutDate time.Time
}

func Evaluate(start time.Time, interval, members int, today time.Time) (State, error) {
	if interval <= 0 {
		return State{}, ErrInvalidInterval
	}
	days, err := DaysSinceStart(start, today)
	if err != nil {
		return State{}, err
	}
	cycleNumber := days/interval + 1
	position, err := PositionForCycle(cycleNumber, members)
	if err != nil {
		return State{}, err
	}
	return State{
		DaysSinceStart: days,
		CycleNumber:    cycleNumber,
		Position:       position,
		IsPayoutDay:    days%interval == 0,
		NextPayoutDate: Date(start).AddDate(0, 0, cycleNumber*interval),
	}, nil
}
