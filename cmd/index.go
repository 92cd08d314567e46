// titanmk index
package cmd

import (
	"fmt"

	"github.com/qobs-build/titanmk/internal/index"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/settings"
	"github.com/spf13/cobra"
)

func loadIndex() *index.Index {
	idx, err := index.Load(settings.IndexDir())
	if err != nil {
		msg.Fatal("failed to load index: %v", err)
	}
	return idx
}

func doIndexAdd(name, source string) {
	idx := loadIndex()

	if idx.Has(name) {
		msg.Warn("overwriting existing reference %s", name)
	}
	idx.Set(name, source)

	if err := idx.Save(); err != nil {
		msg.Fatal("failed to save index: %v", err)
	}
	msg.Info("added reference %s -> %s", name, source)
}

func doIndexRemove(name string) {
	idx := loadIndex()

	if !idx.Remove(name) {
		msg.Warn("reference %s not found", name)
		return
	}
	msg.Info("removed reference %s", name)

	if err := idx.Save(); err != nil {
		msg.Fatal("failed to save index: %v", err)
	}
}

func doIndexUpdate() {
	s := loadSettings()
	if _, err := index.Fetch(settings.IndexDir(), s.IndexURL); err != nil {
		msg.Fatal("failed to update index: %v", err)
	}
	msg.Info("updated index successfully")
}

func doIndexSearch(term string) {
	idx := loadIndex()

	names := idx.Search(term)
	for i, name := range names {
		src, _ := idx.Lookup(name)
		fmt.Printf("%d. %s -> %s\n", i+1, name, src)
	}

	if len(names) == 0 {
		msg.Warn("no matches found for %q", term)
	} else {
		msg.Info("found %d matches for %q", len(names), term)
	}
}

var indexAddCmd = &cobra.Command{
	Use:   "add <name> <source>",
	Short: "Add a reference source to the index",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		doIndexAdd(args[0], args[1])
	},
}

var indexRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a reference source from the index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doIndexRemove(args[0])
	},
}

var indexUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch the shared index repository (index_url)",
	Run: func(cmd *cobra.Command, args []string) {
		doIndexUpdate()
	},
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the index; lists everything without a term",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		term := ""
		if len(args) > 0 {
			term = args[0]
		}
		doIndexSearch(term)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the index of reference sources used by `index:<name>` references",
}

func init() {
	// titanmk index subcommand
	indexCmd.AddCommand(indexUpdateCmd)
	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexRemoveCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}
