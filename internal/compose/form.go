// Package compose holds the state of the appointment form. Every change to
// the form recomputes the multi-zone preview and hands the new rows to the
// subscribed listeners, so views never read stale previews.
//
// A Form is not safe for concurrent use.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"appointment-planner/internal/api"
	"appointment-planner/internal/tzconv"
)

var (
	ErrTitleRequired  = errors.New("title required")
	ErrEndBeforeStart = errors.New("end time must be after start time")
)

// Listener receives the preview rows after every recompute. An empty slice
// means the date/time fields are incomplete or unparseable.
type Listener func(rows []tzconv.Preview)

type Form struct {
	engine  *tzconv.Engine
	creator api.User

	title                string
	startDate, startTime string
	endDate, endTime     string
	participants         []api.User

	previews  []tzconv.Preview
	listeners map[int]Listener
	nextID    int
}

func New(engine *tzconv.Engine, creator api.User) *Form {
	return &Form{engine: engine, creator: creator, listeners: map[int]Listener{}}
}

// Subscribe registers l and calls it once with the current rows. The
// returned func removes it.
func (f *Form) Subscribe(l Listener) (unsubscribe func()) {
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	l(f.Previews())
	return func() { delete(f.listeners, id) }
}

func (f *Form) SetTitle(title string) {
	f.title = title
	f.recompute()
}

func (f *Form) SetStart(date, clock string) {
	f.startDate, f.startTime = date, clock
	f.recompute()
}

func (f *Form) SetEnd(date, clock string) {
	f.endDate, f.endTime = date, clock
	f.recompute()
}

// SetParticipants replaces the selection. The creator is skipped if present.
func (f *Form) SetParticipants(users []api.User) {
	f.participants = f.participants[:0]
	for _, u := range users {
		if u.ID != f.creator.ID && !f.selected(u.ID) {
			f.participants = append(f.participants, u)
		}
	}
	f.recompute()
}

func (f *Form) AddParticipant(u api.User) {
	if u.ID == f.creator.ID || f.selected(u.ID) {
		return
	}
	f.participants = append(f.participants, u)
	f.recompute()
}

func (f *Form) RemoveParticipant(id string) {
	for i, u := range f.participants {
		if u.ID == id {
			f.participants = append(f.participants[:i], f.participants[i+1:]...)
			f.recompute()
			return
		}
	}
}

func (f *Form) selected(id string) bool {
	for _, u := range f.participants {
		if u.ID == id {
			return true
		}
	}
	return false
}

// Previews returns a copy of the current rows.
func (f *Form) Previews() []tzconv.Preview {
	return append([]tzconv.Preview(nil), f.previews...)
}

// Valid reports whether every row, including the creator's, is inside
// working hours.
func (f *Form) Valid() bool {
	return len(f.previews) > 0 && !tzconv.AnyInvalid(f.previews)
}

func (f *Form) recompute() {
	f.previews = nil
	start, err := tzconv.ParseWallClock(f.startDate, f.startTime)
	if err == nil {
		var end tzconv.WallClock
		if end, err = tzconv.ParseWallClock(f.endDate, f.endTime); err == nil {
			ps := make([]tzconv.Participant, len(f.participants))
			for i, u := range f.participants {
				ps[i] = tzconv.Participant{Zone: u.PreferredTimezone, Label: u.Name}
			}
			f.previews = f.engine.BuildPreviews(f.creatorParticipant(), start, end, ps)
		}
	}
	for _, l := range f.listeners {
		l(f.Previews())
	}
}

func (f *Form) creatorParticipant() tzconv.Participant {
	return tzconv.Participant{Zone: f.creator.PreferredTimezone, Label: f.creator.Name}
}

// Request builds the create request with both times as UTC instants
// resolved in the creator's zone.
func (f *Form) Request() (api.CreateAppointmentRequest, error) {
	var req api.CreateAppointmentRequest
	title := strings.TrimSpace(f.title)
	if title == "" {
		return req, ErrTitleRequired
	}

	start, err := tzconv.ParseWallClock(f.startDate, f.startTime)
	if err != nil {
		return req, fmt.Errorf("start: %w", err)
	}
	end, err := tzconv.ParseWallClock(f.endDate, f.endTime)
	if err != nil {
		return req, fmt.Errorf("end: %w", err)
	}
	startAt, err := f.engine.LocalToInstant(start, f.creator.PreferredTimezone)
	if err != nil {
		return req, err
	}
	endAt, err := f.engine.LocalToInstant(end, f.creator.PreferredTimezone)
	if err != nil {
		return req, err
	}
	if endAt <= startAt {
		return req, ErrEndBeforeStart
	}

	req.Title = title
	req.Start = startAt.ISO()
	req.End = endAt.ISO()
	req.ParticipantIDs = make([]string, len(f.participants))
	for i, u := range f.participants {
		req.ParticipantIDs[i] = u.ID
	}
	return req, nil
}
