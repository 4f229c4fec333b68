/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var listWorkspacesUsage = strings.TrimSpace(`
If you want to find out what workspaces your Nuclino team has, use this command.
`)

var listWorkspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Print list of workspaces",
	Long:  listWorkspacesUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		api, err := newNuclinoAPI()
		if err != nil {
			return fmt.Errorf("list: couldn't instantiate Nuclino API: %w", err)
		}

		log.Println("Listing Nuclino workspaces...")
		workspaces, err := api.ListAllWorkspaces(ctx)
		if err != nil {
			return fmt.Errorf("list: couldn't list Nuclino workspaces: %w", err)
		}

		log.Printf("Found %d workspaces.\n", len(workspaces))

		sort.Slice(workspaces, func(i, j int) bool {
			return workspaces[i].Name < workspaces[j].Name
		})

		fmt.Printf("workspaces:\n")
		for _, ws := range workspaces {
			fmt.Printf("  - %s: %s (%d top-level items)\n", ws.ID, ws.Name, len(ws.ChildIDs))
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listWorkspacesCmd)
}
