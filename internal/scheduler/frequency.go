package scheduler

import (
	"fmt"
	"time"
)

const (
	Hourly     = "hourly"
	TwiceDaily = "twice_daily"
	Daily      = "daily"

	// MinInterval is the shortest accepted duration frequency.
	MinInterval = time.Minute
)

// Frequency decides when the next scan cycle starts. Named frequencies fire
// at wall-clock times in the scheduler's location; a duration frequency
// fires that long after the previous cycle.
type Frequency struct {
	name  string
	every time.Duration
}

func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case Hourly, TwiceDaily, Daily:
		return Frequency{name: s}, nil
	case "":
		return Frequency{name: TwiceDaily}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Frequency{}, fmt.Errorf("scan frequency must be hourly, twice_daily, daily or a duration, got %q", s)
	}
	if d < MinInterval {
		return Frequency{}, fmt.Errorf("scan frequency %s is shorter than %s", d, MinInterval)
	}
	return Frequency{every: d}, nil
}

func Every(d time.Duration) Frequency {
	return Frequency{every: d}
}

func (f Frequency) String() string {
	if f.name != "" {
		return f.name
	}
	return f.every.String()
}

// Next returns the first firing time strictly after t.
func (f Frequency) Next(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()

	switch f.name {
	case Hourly:
		next := time.Date(y, m, d, local.Hour(), 0, 0, 0, loc)
		for !next.After(t) {
			next = next.Add(time.Hour)
		}
		return next
	case TwiceDaily:
		return nextAt(t, loc, 6, 18)
	case Daily:
		return nextAt(t, loc, 6)
	}
	return t.Add(f.every)
}

// nextAt finds the earliest of the given local hours after t, looking at
// today and tomorrow.
func nextAt(t time.Time, loc *time.Location, hours ...int) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	for day := 0; day < 2; day++ {
		for _, h := range hours {
			next := time.Date(y, m, d+day, h, 0, 0, 0, loc)
			if next.After(t) {
				return next
			}
		}
	}
	return time.Date(y, m, d+2, hours[0], 0, 0, 0, loc)
}
