// Package tzconv converts between zone-local wall-clock times and absolute
// instants, and builds the per-participant time-zone preview used while
// composing an appointment.
package tzconv

import (
	"fmt"
	"strings"
	"time"
)

// offset resolution never needs more than two corrections for real zones;
// anything left over is a DST gap
const maxCorrections = 2

// Window is a local working-hours window in minutes of day, both ends inclusive.
type Window struct {
	Start int
	End   int
}

var WorkingHours = Window{Start: 9 * 60, End: 17 * 60}

// ParseWindow builds a Window from two HH:MM strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse("15:04", strings.TrimSpace(start))
	if err != nil {
		return Window{}, fmt.Errorf("window start %q: %w", start, err)
	}
	e, err := time.Parse("15:04", strings.TrimSpace(end))
	if err != nil {
		return Window{}, fmt.Errorf("window end %q: %w", end, err)
	}
	w := Window{Start: s.Hour()*60 + s.Minute(), End: e.Hour()*60 + e.Minute()}
	if w.End <= w.Start {
		return Window{}, fmt.Errorf("window end %s must be after start %s", end, start)
	}
	return w, nil
}

// Contains reports whether both times fall inside the window and end is
// strictly after start.
func (w Window) Contains(start, end WallClock) bool {
	s, e := start.MinuteOfDay(), end.MinuteOfDay()
	return s >= w.Start && s <= w.End &&
		e >= w.Start && e <= w.End &&
		e > s
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

type Engine struct {
	zones  Zones
	window Window
}

type Option func(*Engine)

func WithZones(z Zones) Option { return func(e *Engine) { e.zones = z } }

func WithWindow(w Window) Option { return func(e *Engine) { e.window = w } }

func New(opts ...Option) *Engine {
	e := &Engine{zones: DefaultZones, window: WorkingHours}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Window() Window { return e.window }

// Resolution is the outcome of resolving a wall clock in a zone. Exact is
// false when the wall clock does not exist there (DST gap) and Instant is
// the best-effort guess.
type Resolution struct {
	Instant     Instant
	Exact       bool
	Corrections int
}

// LocalToInstant returns the instant whose wall clock in zone equals wc.
func (e *Engine) LocalToInstant(wc WallClock, zone string) (Instant, error) {
	r, err := e.Resolve(wc, zone)
	return r.Instant, err
}

// Resolve finds the instant for wc in zone by fixed-point iteration: read
// wc as UTC, project the guess into zone, shift the guess by the difference
// between the wanted and the observed wall clock, repeat at most twice.
func (e *Engine) Resolve(wc WallClock, zone string) (Resolution, error) {
	if zone == "" {
		return Resolution{}, fmt.Errorf("%w: empty zone", ErrUnknownZone)
	}
	want := wc.asUTC()
	guess := want
	for n := 0; n < maxCorrections; n++ {
		seen, err := e.zones.Fields(guess, zone)
		if err != nil {
			return Resolution{}, err
		}
		delta := want - seen.asUTC()
		if delta == 0 {
			return Resolution{Instant: guess, Exact: true, Corrections: n}, nil
		}
		guess += delta
	}
	seen, err := e.zones.Fields(guess, zone)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Instant: guess, Exact: seen.asUTC() == want, Corrections: maxCorrections}, nil
}

// InstantToLocal projects i into zone.
func (e *Engine) InstantToLocal(i Instant, zone string) (WallClock, error) {
	if zone == "" {
		return WallClock{}, fmt.Errorf("%w: empty zone", ErrUnknownZone)
	}
	return e.zones.Fields(i, zone)
}
