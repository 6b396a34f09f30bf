package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hubview/hubview/internal/session"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			auth := buildAuthClient(logger)
			backend := session.NewFileBackend(resolvedCfg.SessionFile)
			sessions := newSessionStore(auth, logger)

			sess, err := sessions.EnsureValid(cmd.Context(), backend)
			if err != nil {
				return fmt.Errorf("not logged in (run 'hubview login'): %w", err)
			}

			profile, err := auth.UserInfo(cmd.Context(), sess.InternalToken)
			if err != nil {
				return fmt.Errorf("fetching user profile: %w", err)
			}

			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(profile)
			}

			fmt.Printf("%s <%s>\n", profile.Name, profile.Email)
			fmt.Printf("session expires: %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}
