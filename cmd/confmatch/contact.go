package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"confmatch/pkg/api"
	"confmatch/pkg/validation"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message to the organizers",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		req := api.ContactRequest{}
		req.Name = prompt(in, out, "Name: ")
		req.Email = prompt(in, out, "Email: ")
		req.Subject = prompt(in, out, "Subject: ")
		req.Message = prompt(in, out, "Message: ")

		errs := validation.FieldErrors{}
		if !validation.Required(req.Name) {
			errs.Add("name", "required")
		}
		if !validation.ValidEmail(req.Email) {
			errs.Add("email", "invalid email address")
		}
		if !validation.Required(req.Message) {
			errs.Add("message", "required")
		}
		if !errs.Ok() {
			for k, v := range errs {
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
			return fmt.Errorf("contact form invalid")
		}

		client := api.New(cfg.API, sess)
		if err := client.SubmitContact(cmd.Context(), req); err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		fmt.Fprintln(out, "Sent. The organizers will get back to you.")
		return nil
	},
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
