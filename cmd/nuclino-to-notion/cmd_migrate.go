/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/toothbrush/nuclino-to-notion/localcache"
)

var migrateUsage = strings.TrimSpace(`
Commands in this namespace replay a cached workspace into Notion.  They read only the local store,
so run 'cache' first.  Progress is recorded per page; re-running skips whatever already landed.
`)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Commands to push cached pages into Notion",
	Long:  migrateUsage,
}

var NoPrompt bool

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.PersistentFlags().StringVar(&NotionParent, "notion-parent", "", "Notion page id to create migrated pages under")
	migrateCmd.PersistentFlags().BoolVar(&NoPrompt, "no-prompt", false, "log pending manual uploads instead of nagging")
}

// openCachedWorkspace resolves the store directory for a workspace name and
// loads its header and ledger.
func openCachedWorkspace(workspaceName string) (*localcache.Store, localcache.CachedWorkspace, *localcache.RecordSet, error) {
	if LocalStore == "" {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("No location set for local store of Nuclino data.  Use --store or set it in your config file.")
	}
	storePath, err := homedir.Expand(LocalStore)
	if err != nil {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("migrate: couldn't expand homedir: %w", err)
	}

	slug, err := localcache.Canonicalise(workspaceName)
	if err != nil {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("migrate: couldn't derive workspace slug: %w", err)
	}

	store, err := localcache.Open(storePath, slug)
	if err != nil {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("migrate: couldn't open local store: %w", err)
	}

	workspace, err := store.FindWorkspace()
	if err != nil {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("migrate: %w", err)
	}

	records, err := localcache.LoadRecords(store)
	if err != nil {
		return nil, localcache.CachedWorkspace{}, nil, fmt.Errorf("migrate: couldn't load migration ledger: %w", err)
	}

	return store, workspace, records, nil
}
