package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"confmatch/pkg/api"
	"confmatch/pkg/session"
	"confmatch/pkg/validation"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and persist the session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())

		var email string
		if len(args) > 0 {
			email = args[0]
		} else {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			line, err := in.ReadString('\n')
			if err != nil {
				return err
			}
			email = strings.TrimSpace(line)
		}
		if !validation.ValidEmail(email) {
			return fmt.Errorf("invalid email address: %s", email)
		}

		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, err := in.ReadString('\n')
		if err != nil {
			return err
		}
		password := strings.TrimRight(line, "\r\n")

		client := api.New(cfg.API, sess)
		if err := client.Login(cmd.Context(), email, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := sess.SaveFile(sessionPath()); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.Identity().Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and drop the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.End()
		if err := session.RemoveFile(sessionPath()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}
