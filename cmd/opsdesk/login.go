package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/opsdesk/internal/authz"
	"github.com/naveenspark/opsdesk/pkg/client"
)

func newLoginCmd(e *env) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password. The session is written to the state
directory and reused by the console and the other commands.

Without --email the credentials are prompted for. With --password-stdin the
password is read from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := ""
			if passwordStdin {
				if email == "" {
					return errors.New("--password-stdin requires --email")
				}
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			} else if err := promptCredentials(&email, &password); err != nil {
				return err
			}

			sess, err := e.client.Login(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				if client.IsUnauthenticated(err) {
					return errors.New("invalid email or password")
				}
				return err
			}
			if err := e.auth.Login(sess); err != nil {
				return fmt.Errorf("store session: %w", err)
			}
			e.logger.Info("signed in", "user_id", sess.UserID, "role", sess.Role)

			pterm.Success.Printfln("Signed in as %s (%s)", sess.DisplayName, sess.Role)
			warnDrift(e, cmd)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func promptCredentials(email, password *string) error {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Email").Value(email).Validate(required("email")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password).Validate(required("password")),
	))
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

// warnDrift compares permission vocabularies after sign-in. It never fails
// the command.
func warnDrift(e *env, cmd *cobra.Command) {
	names, err := e.client.ListPermissions(cmd.Context())
	if err != nil {
		e.logger.WithError(err).Warn("permission vocabulary check failed")
		return
	}
	if r := authz.CheckVocabulary(names); !r.OK() {
		pterm.Warning.Printfln("permission drift: %d unknown to console, %d missing on server (see: opsdesk permissions)",
			len(r.UnknownToClient), len(r.MissingOnServer))
	}
}
