/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/nuclino-to-notion/internal/termfmt"
	"github.com/toothbrush/nuclino-to-notion/localcache"
	"github.com/toothbrush/nuclino-to-notion/nuclino"
)

var cacheUsage = strings.TrimSpace(`
Snapshot a whole Nuclino workspace to the local store: every page, collection, author and
attachment.  Give it the workspace name as shown by 'list workspaces'.  Safe to re-run; items are
re-fetched but attachments you already have are kept.
`)

var cacheCmd = &cobra.Command{
	Use:   "cache WORKSPACE",
	Short: "Download a Nuclino workspace into the local store",
	Long:  cacheUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLog("  AlwaysDownload: %v\n", AlwaysDownload)
		return runCache(cmd, args[0])
	},
}

var (
	AlwaysDownload bool
	WithVCR        bool
)

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.Flags().BoolVarP(&AlwaysDownload, "always-download", "f", false, "re-download attachments even if already cached")
	cacheCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
}

func runCache(cmd *cobra.Command, workspaceName string) error {
	if LocalStore == "" {
		return fmt.Errorf("No location set for local store of Nuclino data.  Use --store or set it in your config file.")
	}

	storePath, err := homedir.Expand(LocalStore)
	if err != nil {
		return fmt.Errorf("cache: couldn't expand homedir: %w", err)
	}
	if err := os.MkdirAll(storePath, 0750); err != nil {
		return fmt.Errorf("cache: couldn't create store directory %s: %w", storePath, err)
	}

	api, err := newNuclinoAPI()
	if err != nil {
		return fmt.Errorf("cache: couldn't instantiate Nuclino API: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/nuclino-stuff",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("cache: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	ctx := cmd.Context()

	workspace, err := findWorkspace(cmd, api, workspaceName)
	if err != nil {
		return err
	}
	fmt.Printf("Caching workspace '%s' (%d top-level items)...\n", workspace.Name, len(workspace.ChildIDs))

	slug, err := localcache.Canonicalise(workspace.Name)
	if err != nil {
		return fmt.Errorf("cache: couldn't derive workspace slug: %w", err)
	}
	store, err := localcache.Open(storePath, slug)
	if err != nil {
		return fmt.Errorf("cache: couldn't open local store: %w", err)
	}

	builder := &localcache.Builder{
		Store:          store,
		Source:         api,
		Logger:         log.Default(),
		AlwaysDownload: AlwaysDownload,
	}

	report, err := builder.BuildWorkspace(ctx, workspace)
	if err != nil {
		return fmt.Errorf("cache: workspace snapshot failed: %w", err)
	}

	fmt.Printf("Cached %v pages, %v collections, %v authors, %v attachments to %s.\n",
		termfmt.Bold().V(report.Items),
		termfmt.Bold().V(report.Collections),
		termfmt.Bold().V(report.Users),
		termfmt.Bold().V(report.Blobs),
		store.Dir,
	)

	if len(report.Failures) > 0 {
		fmt.Printf("%v items could not be cached:\n", termfmt.Fg(200, 40, 40, termfmt.Red).V(len(report.Failures)))
		for _, failure := range report.Failures {
			fmt.Printf("  - %s: %v\n", failure.ItemID, failure.Err)
		}
		return fmt.Errorf("cache: %d items failed, re-run to retry them", len(report.Failures))
	}

	return nil
}

func findWorkspace(cmd *cobra.Command, api *nuclino.API, name string) (nuclino.Workspace, error) {
	workspaces, err := api.ListAllWorkspaces(cmd.Context())
	if err != nil {
		return nuclino.Workspace{}, fmt.Errorf("cache: couldn't list Nuclino workspaces: %w", err)
	}

	for _, ws := range workspaces {
		if strings.EqualFold(ws.Name, name) || ws.ID == name {
			return ws, nil
		}
	}
	return nuclino.Workspace{}, fmt.Errorf("cache: no workspace named '%s'; try 'list workspaces'", name)
}
