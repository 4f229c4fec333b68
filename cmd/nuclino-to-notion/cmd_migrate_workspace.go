/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toothbrush/nuclino-to-notion/internal/termfmt"
	"github.com/toothbrush/nuclino-to-notion/localcache"
	"github.com/toothbrush/nuclino-to-notion/migrate"
)

var migrateWorkspaceUsage = strings.TrimSpace(`
Replay an entire cached workspace into Notion, parents before children.  Needs --notion-parent, the
id of an existing Notion page to build under.  Already-migrated pages are skipped, so interrupt and
re-run as often as you like.
`)

var migrateWorkspaceCmd = &cobra.Command{
	Use:   "workspace WORKSPACE",
	Short: "Migrate a whole cached workspace into Notion",
	Long:  migrateWorkspaceUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if NotionParent == "" {
			return fmt.Errorf("migrate: please provide --notion-parent, the Notion page to migrate into")
		}

		store, workspace, records, err := openCachedWorkspace(args[0])
		if err != nil {
			return err
		}

		migrator, err := newMigrator(store, records)
		if err != nil {
			return err
		}

		fmt.Printf("Migrating workspace '%s' into Notion page %s...\n", workspace.Name, NotionParent)
		summary, err := migrator.MigrateWorkspace(cmd.Context(), workspace.ID, NotionParent)
		if err != nil {
			return fmt.Errorf("migrate: run failed: %w", err)
		}

		printSummary(summary)
		if summary.Failed > 0 {
			return fmt.Errorf("migrate: %d pages failed, re-run to retry them", summary.Failed)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateWorkspaceCmd)
}

func newMigrator(store *localcache.Store, records *localcache.RecordSet) (*migrate.Migrator, error) {
	api, err := newNotionAPI()
	if err != nil {
		return nil, fmt.Errorf("migrate: couldn't instantiate Notion API: %w", err)
	}

	var prompter migrate.Prompter = &migrate.TerminalPrompter{In: os.Stdin, Out: os.Stdout}
	if NoPrompt {
		prompter = &migrate.QuietPrompter{Out: os.Stderr}
	}

	return &migrate.Migrator{
		Store:       store,
		Records:     records,
		Destination: api,
		Prompter:    prompter,
		Logger:      log.Default(),
	}, nil
}

func printSummary(summary *migrate.Summary) {
	fmt.Printf("Done: %v created, %v skipped, %v failed.\n",
		termfmt.Fg(40, 180, 40, termfmt.Green).V(summary.Created),
		termfmt.Bold().V(summary.Skipped),
		termfmt.Fg(200, 40, 40, termfmt.Red).V(summary.Failed),
	)
	for _, failure := range summary.Failures {
		title := failure.Title
		if title == "" {
			title = failure.ItemID
		}
		fmt.Printf("  🚨 %v: %v\n", termfmt.Bold().V(title), failure.Err)
	}
}
