package tzconv

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidWallClock = errors.New("invalid wall clock")

// Instant is an absolute point in time in Unix milliseconds.
type Instant int64

func InstantOf(t time.Time) Instant { return Instant(t.UnixMilli()) }

func (i Instant) Time() time.Time { return time.UnixMilli(int64(i)).UTC() }

// ISO renders the instant in UTC, e.g. 2024-06-01T02:00:00Z.
func (i Instant) ISO() string { return i.Time().Format(time.RFC3339Nano) }

func (i Instant) String() string { return i.ISO() }

// WallClock is a naive date and time of day with no zone attached.
type WallClock struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// WallClockOf reads the calendar fields of t in its own location.
func WallClockOf(t time.Time) WallClock {
	return WallClock{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// asUTC treats the fields as if they were already UTC.
func (w WallClock) asUTC() Instant {
	return InstantOf(time.Date(w.Year, time.Month(w.Month), w.Day, w.Hour, w.Minute, w.Second, 0, time.UTC))
}

func (w WallClock) IsZero() bool { return w == WallClock{} }

// MinuteOfDay is hour*60+minute.
func (w WallClock) MinuteOfDay() int { return w.Hour*60 + w.Minute }

// Clock is the zero-padded HH:MM time of day.
func (w WallClock) Clock() string { return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute) }

// Date is the zero-padded YYYY-MM-DD calendar date.
func (w WallClock) Date() string { return fmt.Sprintf("%04d-%02d-%02d", w.Year, w.Month, w.Day) }

// String renders the naive ISO form 2006-01-02T15:04:05.
func (w WallClock) String() string {
	return fmt.Sprintf("%sT%s:%02d", w.Date(), w.Clock(), w.Second)
}

// ParseWallClock combines a YYYY-MM-DD date with an H:MM, HH:MM or HH:MM:SS
// time of day, as typed into a form.
func ParseWallClock(date, clock string) (WallClock, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return WallClock{}, fmt.Errorf("%w: date and time required", ErrInvalidWallClock)
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: date %q", ErrInvalidWallClock, date)
	}
	layout := "15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	c, err := time.Parse(layout, clock)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: time %q", ErrInvalidWallClock, clock)
	}
	return WallClock{
		Year:   d.Year(),
		Month:  int(d.Month()),
		Day:    d.Day(),
		Hour:   c.Hour(),
		Minute: c.Minute(),
		Second: c.Second(),
	}, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseLocal parses a naive ISO date-time without offset.
func ParseLocal(s string) (WallClock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return WallClockOf(t), nil
		}
	}
	return WallClock{}, fmt.Errorf("%w: %q, use 2006-01-02T15:04:05", ErrInvalidWallClock, s)
}
