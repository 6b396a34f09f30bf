package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubview/hubview/internal/session"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved session",
		RunE: func(_ *cobra.Command, _ []string) error {
			backend := session.NewFileBackend(resolvedCfg.SessionFile)

			if err := backend.Clear(); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}

			fmt.Println("Logged out.")

			return nil
		},
	}
}
