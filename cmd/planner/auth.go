package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"appointment-planner/internal/client"
	"appointment-planner/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			s, err := a.api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := session.Save(a.cfg.SessionFile, s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", s.User.Name, s.User.PreferredTimezone)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password; read from stdin when omitted")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := session.Load(a.cfg.SessionFile)
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return session.Remove(a.cfg.SessionFile)
			}
			if err != nil {
				return err
			}
			err = a.api.Logout(cmd.Context(), s)
			if rmErr := session.Remove(a.cfg.SessionFile); rmErr != nil {
				return rmErr
			}
			// a revoked or expired token is as good as logged out
			if err != nil && !errors.Is(err, client.ErrUnauthorized) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", s.User.Name, s.User.Username)
			fmt.Fprintf(out, "id:        %s\n", s.User.ID)
			fmt.Fprintf(out, "time zone: %s\n", s.User.PreferredTimezone)
			if !s.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "expires:   %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
