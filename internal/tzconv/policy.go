package tzconv

import "fmt"

// Policy selects which preview rows must fall inside working hours for an
// appointment to be accepted.
type Policy string

const (
	PolicyCreator Policy = "creator"
	PolicyAll     Policy = "all"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyCreator, PolicyAll:
		return p, nil
	}
	return "", fmt.Errorf("unsupported working hours policy %q", s)
}

// Rejected returns the rows p does not accept. Under PolicyCreator only the
// first (creator) row counts.
func (p Policy) Rejected(rows []Preview) []Preview {
	if p != PolicyAll && len(rows) > 0 {
		rows = rows[:1]
	}
	var bad []Preview
	for _, r := range rows {
		if !r.WithinWorkingHours {
			bad = append(bad, r)
		}
	}
	return bad
}
