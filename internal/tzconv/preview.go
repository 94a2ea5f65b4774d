package tzconv

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrorDisplay replaces the time of day on rows that failed to convert.
const ErrorDisplay = "Error"

// Participant is one person whose local time should be previewed.
type Participant struct {
	Zone  string
	Label string
}

// Preview is one row of the multi-zone panel. Start and End are projections
// of the same two instants through Zone; on the creator's row they are the
// typed values themselves.
type Preview struct {
	Zone               string
	Label              string
	Start              WallClock
	End                WallClock
	WithinWorkingHours bool
	Err                error
}

func (p Preview) DisplayStart() string {
	if p.Err != nil {
		return ErrorDisplay
	}
	return p.Start.Clock()
}

func (p Preview) DisplayEnd() string {
	if p.Err != nil {
		return ErrorDisplay
	}
	return p.End.Clock()
}

type previewJSON struct {
	Timezone  string `json:"timezone"`
	Label     string `json:"label"`
	StartDate string `json:"start_date,omitempty"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date,omitempty"`
	EndTime   string `json:"end_time"`
	IsValid   bool   `json:"is_valid"`
	Error     string `json:"error,omitempty"`
}

func (p Preview) MarshalJSON() ([]byte, error) {
	out := previewJSON{
		Timezone:  p.Zone,
		Label:     p.Label,
		StartTime: p.DisplayStart(),
		EndTime:   p.DisplayEnd(),
		IsValid:   p.WithinWorkingHours,
	}
	if p.Err != nil {
		out.Error = p.Err.Error()
	} else {
		out.StartDate = p.Start.Date()
		out.EndDate = p.End.Date()
	}
	return json.Marshal(out)
}

func (p *Preview) UnmarshalJSON(b []byte) error {
	var in previewJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*p = Preview{Zone: in.Timezone, Label: in.Label, WithinWorkingHours: in.IsValid}
	if in.Error != "" {
		p.Err = errors.New(in.Error)
		return nil
	}
	var err error
	if p.Start, err = ParseWallClock(in.StartDate, in.StartTime); err != nil {
		return err
	}
	p.End, err = ParseWallClock(in.EndDate, in.EndTime)
	return err
}

// AnyInvalid reports whether some row is outside working hours or failed.
func AnyInvalid(rows []Preview) bool {
	for _, p := range rows {
		if !p.WithinWorkingHours {
			return true
		}
	}
	return false
}

// BuildPreviews computes the preview rows for an appointment typed in the
// creator's zone. The creator's row comes first; participant zones equal to
// the creator's, or to an earlier participant's, are folded into that row
// instead of producing a duplicate. A failure in one zone only marks that
// row invalid. A missing (zero) start or end yields no rows.
func (e *Engine) BuildPreviews(creator Participant, start, end WallClock, participants []Participant) []Preview {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	startAt, startErr := e.LocalToInstant(start, creator.Zone)
	endAt, endErr := e.LocalToInstant(end, creator.Zone)
	convErr := startErr
	if convErr == nil {
		convErr = endErr
	}

	rows := []Participant{creator}
	index := map[string]int{creator.Zone: 0}
	for _, p := range participants {
		if i, ok := index[p.Zone]; ok {
			if i > 0 && p.Label != "" {
				rows[i].Label = joinLabel(rows[i].Label, p.Label)
			}
			continue
		}
		index[p.Zone] = len(rows)
		rows = append(rows, p)
	}

	out := make([]Preview, 0, len(rows))
	for i, p := range rows {
		pv := Preview{Zone: p.Zone, Label: p.Label}
		switch {
		case convErr != nil:
			pv.Err = convErr
		case i == 0:
			pv.Start, pv.End = start, end
		default:
			pv.Start, pv.Err = e.InstantToLocal(startAt, p.Zone)
			if pv.Err == nil {
				pv.End, pv.Err = e.InstantToLocal(endAt, p.Zone)
			}
		}
		if pv.Err == nil {
			pv.WithinWorkingHours = e.window.Contains(pv.Start, pv.End)
		}
		out = append(out, pv)
	}
	return out
}

func joinLabel(a, b string) string {
	if a == "" {
		return b
	}
	if strings.Contains(", "+a+", ", ", "+b+", ") {
		return a
	}
	return a + ", " + b
}
