package cycle

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyGroupAdvancesOnDaySeven(t *testing.T) {
	start := date(2026, time.March, 2)

	cycle6, err := CurrentCycleNumber(start, 7, start.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("cycle day 6: %v", err)
	}
	if cycle6 != 1 {
		t.Fatalf("expected cycle 1 on day 6, got %d", cycle6)
	}

	day7 := start.AddDate(0, 0, 7)
	cycle7, err := CurrentCycleNumber(start, 7, day7)
	if err != nil {
		t.Fatalf("cycle day 7: %v", err)
	}
	if cycle7 != 2 {
		t.Fatalf("expected cycle 2 on day 7, got %d", cycle7)
	}

	due, err := IsPayoutDay(start, 7, day7)
	if err != nil {
		t.Fatalf("payout day: %v", err)
	}
	if !due {
		t.Fatalf("expected day 7 to be a payout day")
	}

	position, err := PositionForCycle(cycle7, 5)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if position != 2 {
		t.Fatalf("expected position 2, got %d", position)
	}
}

func TestStartDateIsPayoutDayOfFirstCycle(t *testing.T) {
	start := date(2026, time.January, 10)

	state, err := Evaluate(start, 7, 4, start)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !state.IsPayoutDay || state.CycleNumber != 1 || state.Position != 1 {
		t.Fatalf("expected payout day in cycle 1 position 1, got %+v", state)
	}
	if !state.NextPayoutDate.Equal(date(2026, time.January, 17)) {
		t.Fatalf("expected next payout on Jan 17, got %s", state.NextPayoutDate)
	}
}

func TestCycleNumberIsMonotonic(t *testing.T) {
	start := date(2025, time.December, 30)
	previous := 0
	for offset := 0; offset < 120; offset++ {
		current, err := CurrentCycleNumber(start, 3, start.AddDate(0, 0, offset))
		if err != nil {
			t.Fatalf("offset %d: %v", offset, err)
		}
		if current < previous {
			t.Fatalf("cycle went backwards at offset %d: %d -> %d", offset, previous, current)
		}
		if current > previous+1 {
			t.Fatalf("cycle skipped at offset %d: %d -> %d", offset, previous, current)
		}
		previous = current
	}
}

func TestRotationVisitsEveryPositionOnce(t *testing.T) {
	const members = 6
	for first := 1; first <= 13; first++ {
		seen := make(map[int]bool, members)
		for cycleNumber := first; cycleNumber < first+members; cycleNumber++ {
			position, err := PositionForCycle(cycleNumber, members)
			if err != nil {
				t.Fatalf("cycle %d: %v", cycleNumber, err)
			}
			if position < 1 || position > members {
				t.Fatalf("position %d out of range", position)
			}
			if seen[position] {
				t.Fatalf("position %d repeated within window starting at %d", position, first)
			}
			seen[position] = true
		}
	}
}

func TestPayoutDaysOnlyOnBoundaries(t *testing.T) {
	start := date(2026, time.February, 1)
	for offset := 0; offset < 90; offset++ {
		due, err := IsPayoutDay(start, 30, start.AddDate(0, 0, offset))
		if err != nil {
			t.Fatalf("offset %d: %v", offset, err)
		}
		if due != (offset%30 == 0) {
			t.Fatalf("offset %d: expected due=%v, got %v", offset, offset%30 == 0, due)
		}
	}
}

func TestNotStarted(t *testing.T) {
	start := date(2026, time.May, 5)

	if _, err := CurrentCycleNumber(time.Time{}, 7, start); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted for zero start, got %v", err)
	}
	if _, err := IsPayoutDay(start, 7, start.AddDate(0, 0, -1)); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted before start, got %v", err)
	}
}

func TestInvalidInputs(t *testing.T) {
	start := date(2026, time.May, 5)

	if _, err := IsPayoutDay(start, 0, start); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := PositionForCycle(0, 3); !errors.Is(err, ErrInvalidCycle) {
		t.Fatalf("expected ErrInvalidCycle, got %v", err)
	}
	if _, err := PositionForCycle(2, 0); !errors.Is(err, ErrInvalidMembers) {
		t.Fatalf("expected ErrInvalidMembers, got %v", err)
	}
}

func TestTodayUsesLocationCalendar(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, time.June, 1, 22, 30, 0, 0, time.UTC)

	got := Today(now, loc)
	if !got.Equal(date(2026, time.June, 2)) {
		t.Fatalf("expected June 2 in UTC+3, got %s", got)
	}
	if !Today(now, nil).Equal(date(2026, time.June, 1)) {
		t.Fatalf("expected nil location to mean UTC")
	}
}

func TestDaysSinceStartIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.March, 28, 23, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 30, 1, 0, 0, 0, time.UTC)

	days, err := DaysSinceStart(start, today)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if days != 2 {
		t.Fatalf("expected 2 days, got %d", days)
	}
}
