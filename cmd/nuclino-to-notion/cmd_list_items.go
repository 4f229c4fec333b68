/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listItemsUsage = strings.TrimSpace(`
Print every item in a workspace, pages and collections alike.  Useful for eyeballing what a cache
run is going to pull, or for finding an item id to feed to 'migrate page'.
`)

var listItemsCmd = &cobra.Command{
	Use:   "items WORKSPACE",
	Short: "Print list of items in a workspace",
	Long:  listItemsUsage,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newNuclinoAPI()
		if err != nil {
			return fmt.Errorf("list: couldn't instantiate Nuclino API: %w", err)
		}

		workspace, err := findWorkspace(cmd, api, args[0])
		if err != nil {
			return err
		}

		items, err := api.ListItems(cmd.Context(), workspace.ID)
		if err != nil {
			return fmt.Errorf("list: couldn't list items in '%s': %w", workspace.Name, err)
		}

		fmt.Printf("items in %s:\n", workspace.Name)
		for _, item := range items {
			kind := "page"
			if item.IsCollection() {
				kind = "collection"
			}
			fmt.Printf("  - %s [%s] %s\n", item.ID, kind, item.Title)
		}
		fmt.Printf("%d items total.\n", len(items))

		return nil
	},
}

func init() {
	listCmd.AddCommand(listItemsCmd)
}
