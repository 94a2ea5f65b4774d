package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"appointment-planner/internal/client"
	"appointment-planner/internal/config"
	"appointment-planner/internal/logger"
	"appointment-planner/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by all subcommands, filled in before any of them
// runs.
type app struct {
	cfg *config.Client
	api *client.Client
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		apiURL      string
		sessionFile string
		debug       bool
	)
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Schedule appointments across time zones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("session-file") {
				cfg.SessionFile = sessionFile
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			level := "warn"
			if cfg.Debug {
				level = "debug"
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(cmd.ErrOrStderr(), "planner", level, "console")
			a.api = client.New(cfg.APIURL,
				client.WithTimeout(cfg.Timeout),
				client.WithLogger(a.log, cfg.Debug),
			)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&apiURL, "api", "a", "", "API base URL (default $PLANNER_API_URL or http://localhost:8000)")
	root.PersistentFlags().StringVar(&sessionFile, "session-file", "", "where the login session is kept (default $PLANNER_SESSION_FILE)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log every API call")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUsersCmd(a),
		newAppointmentsCmd(a),
		newPreviewCmd(a),
	)
	return root
}

// session loads the saved login or explains how to get one.
func (a *app) session() (*session.Session, error) {
	s, err := session.Load(a.cfg.SessionFile)
	if errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("%w: run `planner login` first", err)
	}
	return s, err
}
