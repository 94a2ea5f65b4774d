package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"appointment-planner/internal/compose"
	"appointment-planner/internal/tzconv"
)

var errOutsideHours = errors.New("some participants are outside working hours; adjust the time or drop --strict")

func newAppointmentsCmd(a *app) *cobra.Command {
	apptCmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "List, create and cancel appointments",
	}

	var from, to string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your appointments in your time zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			zone := s.User.PreferredTimezone
			fromT, err := parseBound(from, zone)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toT, err := parseBound(to, zone)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			list, err := a.api.Appointments(cmd.Context(), s, fromT, toT)
			if err != nil {
				return err
			}
			return printAppointments(cmd.OutOrStdout(), list)
		},
	}
	listCmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD in your zone, or RFC3339)")
	listCmd.Flags().StringVar(&to, "to", "", "day after the last one (YYYY-MM-DD in your zone, or RFC3339)")
	apptCmd.AddCommand(listCmd)

	apptCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			appt, err := a.api.Appointment(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			return printAppointment(cmd.OutOrStdout(), appt)
		},
	})

	var (
		title, start, end string
		with              []string
		strict            bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an appointment after previewing it in every participant's zone",
		Long: `Create an appointment. Start and end are typed in your own time zone.
The preview table shows the meeting in each participant's zone before
anything is sent; with --strict the appointment is only created when every
zone is inside working hours.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			form := compose.New(tzconv.New(), s.User)
			for _, id := range with {
				u, err := a.api.User(cmd.Context(), s, id)
				if err != nil {
					return fmt.Errorf("participant %s: %w", id, err)
				}
				form.AddParticipant(u)
			}
			startDate, startClock := splitDateTime(start, "")
			endDate, endClock := splitDateTime(end, startDate)
			form.SetTitle(title)
			form.SetStart(startDate, startClock)
			form.SetEnd(endDate, endClock)

			out := cmd.OutOrStdout()
			if err := printPreviews(out, tzconv.WorkingHours.String(), form.Previews()); err != nil {
				return err
			}
			if strict && !form.Valid() {
				return errOutsideHours
			}
			req, err := form.Request()
			if err != nil {
				return err
			}
			appt, err := a.api.CreateAppointment(cmd.Context(), s, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			return printAppointment(out, appt)
		},
	}
	createCmd.Flags().StringVarP(&title, "title", "t", "", "appointment title (required)")
	createCmd.Flags().StringVarP(&start, "start", "s", "", `start, "YYYY-MM-DD HH:MM" (required)`)
	createCmd.Flags().StringVarP(&end, "end", "e", "", `end, "YYYY-MM-DD HH:MM" or "HH:MM" on the start day (required)`)
	createCmd.Flags().StringSliceVarP(&with, "with", "w", nil, "participant user IDs")
	createCmd.Flags().BoolVar(&strict, "strict", false, "refuse to create when any zone is outside working hours")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	apptCmd.AddCommand(createCmd)

	apptCmd.AddCommand(&cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"cancel"},
		Short:   "Cancel an appointment you created",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := a.api.CancelAppointment(cmd.Context(), s, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled appointment %s\n", args[0])
			return nil
		},
	})

	return apptCmd
}

// parseBound reads a list bound: RFC3339 as is, a bare date as midnight in
// zone. Empty leaves the server default.
func parseBound(s, zone string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	wc, err := tzconv.ParseWallClock(s, "00:00")
	if err != nil {
		return time.Time{}, err
	}
	i, err := tzconv.New().LocalToInstant(wc, zone)
	if err != nil {
		return time.Time{}, err
	}
	return i.Time(), nil
}
