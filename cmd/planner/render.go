package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"appointment-planner/internal/api"
	"appointment-planner/internal/tzconv"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printPreviews renders one line per zone. The date is shown because a
// meeting can fall on another day in far-away zones.
func printPreviews(w io.Writer, window string, rows []tzconv.Preview) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No preview: start and end must be YYYY-MM-DD HH:MM")
		return err
	}
	tw := table(w)
	fmt.Fprintln(tw, "ZONE\tWHO\tSTART\tEND\tWORKING HOURS")
	for _, p := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Zone, p.Label, previewTime(p, p.Start), previewTime(p, p.End), hoursMark(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if window != "" {
		_, err := fmt.Fprintf(w, "Working hours: %s\n", window)
		return err
	}
	return nil
}

func previewTime(p tzconv.Preview, wc tzconv.WallClock) string {
	if p.Err != nil {
		return tzconv.ErrorDisplay
	}
	return wc.Date() + " " + wc.Clock()
}

func hoursMark(p tzconv.Preview) string {
	switch {
	case p.Err != nil:
		return "error: " + p.Err.Error()
	case p.WithinWorkingHours:
		return "yes"
	default:
		return "NO"
	}
}

func printUsers(w io.Writer, users []api.User) error {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tTIME ZONE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Username, u.PreferredTimezone)
	}
	return tw.Flush()
}

func printAppointments(w io.Writer, list []api.Appointment) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No appointments")
		return err
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tSTART\tEND\tCREATOR\tPARTICIPANTS")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", a.ID, a.Title, a.StartLocal, a.EndLocal, a.Creator.Name, len(a.Participants))
	}
	return tw.Flush()
}

func printAppointment(w io.Writer, a api.Appointment) error {
	names := make([]string, len(a.Participants))
	for i, u := range a.Participants {
		names[i] = fmt.Sprintf("%s (%s)", u.Name, u.PreferredTimezone)
	}
	tw := table(w)
	fmt.Fprintf(tw, "ID:\t%s\n", a.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", a.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", a.Status)
	fmt.Fprintf(tw, "Start:\t%s\n", a.StartLocal)
	fmt.Fprintf(tw, "End:\t%s\n", a.EndLocal)
	fmt.Fprintf(tw, "Creator:\t%s\n", a.Creator.Name)
	fmt.Fprintf(tw, "Participants:\t%s\n", strings.Join(names, ", "))
	return tw.Flush()
}
