package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/opsdesk/internal/authz"
	"github.com/naveenspark/opsdesk/pkg/client"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

var errNotSignedIn = errors.New("not signed in (run: opsdesk login)")

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := e.auth.Logout(); err != nil {
				return err
			}
			pterm.Success.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := e.auth.Bootstrap()
			sess, ok := snap.User()
			if !ok {
				return errNotSignedIn
			}

			pterm.DefaultSection.Println("Session")
			pterm.Info.Printfln("User:   %s <%s>", sess.DisplayName, sess.Email)
			pterm.Info.Printfln("ID:     %s", sess.UserID)
			pterm.Info.Printfln("Role:   %s", sess.Role)
			if !sess.Role.Known() {
				pterm.Warning.Printfln("Role %s is not one this console knows; screens follow permissions only", sess.Role)
			}
			pterm.Info.Printfln("Server: %s", e.cfg.APIURL)
			if e.recordPath != "" {
				pterm.Info.Printfln("Record: %s", e.recordPath)
			}

			pterm.DefaultSection.Println("Permissions")
			if len(sess.Permissions) == 0 {
				pterm.Println("(none)")
			} else {
				pterm.Println(strings.Join(permissionNames(sess.Permissions), "\n"))
			}

			if !verify {
				return nil
			}
			u, err := e.client.Me(cmd.Context())
			switch {
			case client.IsUnauthenticated(err):
				pterm.Warning.Println("Server rejected the session; sign in again")
				return nil
			case err != nil:
				return err
			}
			if u.Role != sess.Role {
				pterm.Warning.Printfln("Server role is %s; permissions refresh on next sign-in", u.Role)
			} else {
				pterm.Success.Println("Session accepted by server")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the session against the server")
	return cmd
}

func newPermissionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "Compare the server's permission names with the console's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := e.auth.Bootstrap().User(); !ok {
				return errNotSignedIn
			}
			names, err := e.client.ListPermissions(cmd.Context())
			if err != nil {
				return err
			}
			report := authz.CheckVocabulary(names)
			if report.OK() {
				pterm.Success.Printfln("%d permission names match", len(names))
				return nil
			}

			table := pterm.TableData{{"PERMISSION", "PROBLEM"}}
			for _, p := range report.MissingOnServer {
				table = append(table, []string{string(p), "missing on server"})
			}
			for _, n := range report.UnknownToClient {
				table = append(table, []string{n, "unknown to console"})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
				return fmt.Errorf("render table: %w", err)
			}
			pterm.Warning.Printfln("%d names differ", len(table)-1)
			return nil
		},
	}
}

func permissionNames(perms []domain.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	sort.Strings(out)
	return out
}
