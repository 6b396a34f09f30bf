package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubview/hubview/internal/browse"
	"github.com/hubview/hubview/internal/session"
	"github.com/hubview/hubview/internal/tree"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse hubs, projects, folders and versions in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			auth := buildAuthClient(logger)
			data := buildDataClient(logger)
			backend := session.NewFileBackend(resolvedCfg.SessionFile)
			sessions := newSessionStore(auth, logger)

			// Fail fast with a clear message instead of an empty tree.
			if _, err := sessions.Current(backend); err != nil {
				return fmt.Errorf("not logged in (run 'hubview login'): %w", err)
			}

			loader := browse.NewLoader(data, sessions, backend)
			ctrl := tree.New(loader, logger)

			return browse.Run(ctrl, loader)
		},
	}
}
