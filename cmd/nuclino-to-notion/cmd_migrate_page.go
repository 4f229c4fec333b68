/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toothbrush/nuclino-to-notion/migrate"
)

var migratePageUsage = strings.TrimSpace(`
Migrate individual cached pages into Notion, without their children.  Handy for a test drive
before committing to a whole workspace, or for retrying a few stubborn pages.
`)

var migratePageCmd = &cobra.Command{
	Use:   "page WORKSPACE ITEM-ID...",
	Short: "Migrate individual cached pages into Notion",
	Long:  migratePageUsage,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if NotionParent == "" {
			return fmt.Errorf("migrate: please provide --notion-parent, the Notion page to migrate into")
		}

		store, _, records, err := openCachedWorkspace(args[0])
		if err != nil {
			return err
		}

		migrator, err := newMigrator(store, records)
		if err != nil {
			return err
		}

		total := &migrate.Summary{}
		for _, itemID := range args[1:] {
			summary, err := migrator.MigrateSingle(cmd.Context(), itemID, NotionParent)
			if err != nil {
				return fmt.Errorf("migrate: run failed: %w", err)
			}
			total.Created += summary.Created
			total.Skipped += summary.Skipped
			total.Failed += summary.Failed
			total.Failures = append(total.Failures, summary.Failures...)
		}

		printSummary(total)
		if total.Failed > 0 {
			return fmt.Errorf("migrate: %d page(s) failed to migrate", total.Failed)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migratePageCmd)
}
