package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"appointment-planner/internal/api"
)

func newUsersCmd(a *app) *cobra.Command {
	usersCmd := &cobra.Command{Use: "users", Short: "Manage users"}

	usersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			users, err := a.api.Users(cmd.Context(), s)
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), users)
		},
	})

	usersCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			u, err := a.api.User(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), []api.User{u})
		},
	})

	var req api.CreateUserRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			u, err := a.api.CreateUser(cmd.Context(), s, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.ID, u.Username)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&req.Name, "name", "n", "", "display name (required)")
	createCmd.Flags().StringVarP(&req.Username, "username", "u", "", "login name (required)")
	createCmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (required)")
	createCmd.Flags().StringVarP(&req.PreferredTimezone, "timezone", "t", "", "IANA time zone (server default when empty)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")
	usersCmd.AddCommand(createCmd)

	var name, zone, password string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a user's name, time zone or password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd api.UpdateUserRequest
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("timezone") {
				upd.PreferredTimezone = &zone
			}
			if cmd.Flags().Changed("password") {
				upd.Password = &password
			}
			if upd == (api.UpdateUserRequest{}) {
				return fmt.Errorf("nothing to update: set --name, --timezone or --password")
			}
			s, err := a.session()
			if err != nil {
				return err
			}
			u, err := a.api.UpdateUser(cmd.Context(), s, args[0], upd)
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), []api.User{u})
		},
	}
	updateCmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	updateCmd.Flags().StringVarP(&zone, "timezone", "t", "", "IANA time zone")
	updateCmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	usersCmd.AddCommand(updateCmd)

	usersCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if err := a.api.DeleteUser(cmd.Context(), s, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		},
	})

	return usersCmd
}
