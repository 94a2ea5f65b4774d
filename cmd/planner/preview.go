package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"appointment-planner/internal/api"
	"appointment-planner/internal/compose"
	"appointment-planner/internal/session"
	"appointment-planner/internal/tzconv"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		zone, start, end, hours string
		participants            []string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show a proposed time in several time zones without contacting the server",
		Example: `  planner preview --zone Asia/Jakarta --start "2024-06-01 09:00" --end 10:00 \
    -p America/New_York=Nina -p Europe/Berlin=Hans`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			window := tzconv.WorkingHours
			if hours != "" {
				s, e, ok := strings.Cut(hours, "-")
				if !ok {
					return fmt.Errorf("--hours: want HH:MM-HH:MM, got %q", hours)
				}
				w, err := tzconv.ParseWindow(s, e)
				if err != nil {
					return fmt.Errorf("--hours: %w", err)
				}
				window = w
			}

			creator := api.User{ID: "you", Name: "you", PreferredTimezone: zone}
			if zone == "" {
				s, err := session.Load(a.cfg.SessionFile)
				if errors.Is(err, session.ErrNoSession) {
					return errors.New("--zone required when not logged in")
				}
				if err != nil {
					return err
				}
				creator = s.User
			}

			form := compose.New(tzconv.New(tzconv.WithWindow(window)), creator)
			var rows []tzconv.Preview
			form.Subscribe(func(r []tzconv.Preview) { rows = r })

			for i, p := range participants {
				z, label := parseParticipant(p)
				form.AddParticipant(api.User{ID: fmt.Sprintf("p%d", i), Name: label, PreferredTimezone: z})
			}
			startDate, startClock := splitDateTime(start, "")
			endDate, endClock := splitDateTime(end, startDate)
			form.SetStart(startDate, startClock)
			form.SetEnd(endDate, endClock)

			return printPreviews(cmd.OutOrStdout(), window.String(), rows)
		},
	}
	cmd.Flags().StringVarP(&zone, "zone", "z", "", "your IANA time zone (default: the logged-in user's)")
	cmd.Flags().StringVarP(&start, "start", "s", "", `start, "YYYY-MM-DD HH:MM" (required)`)
	cmd.Flags().StringVarP(&end, "end", "e", "", `end, "YYYY-MM-DD HH:MM" or "HH:MM" on the start day (required)`)
	cmd.Flags().StringArrayVarP(&participants, "participant", "p", nil, "participant as ZONE or ZONE=LABEL, repeatable")
	cmd.Flags().StringVar(&hours, "hours", "", "working hours as HH:MM-HH:MM (default 09:00-17:00)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// parseParticipant splits ZONE=LABEL; a bare zone is its own label.
func parseParticipant(s string) (zone, label string) {
	zone, label, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || label == "" {
		return zone, zone
	}
	return zone, label
}

// splitDateTime splits "YYYY-MM-DD HH:MM" (or with a T). A value without a
// date is a time on defaultDate.
func splitDateTime(s, defaultDate string) (date, clock string) {
	s = strings.TrimSpace(s)
	if d, c, ok := strings.Cut(s, " "); ok {
		return d, c
	}
	if d, c, ok := strings.Cut(s, "T"); ok {
		return d, c
	}
	if strings.Count(s, "-") == 2 {
		return s, ""
	}
	return defaultDate, s
}
