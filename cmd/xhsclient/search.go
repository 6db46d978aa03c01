package main

import (
	"strings"

	"github.com/spf13/cobra"

	"xhsclient/pkg/xhs"
)

var (
	searchCount   int
	searchSort    string
	searchSummary bool
)

// searchCmd searches notes by keyword
var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search notes by keyword",
	Long: `Search notes by keyword.

A search session ID is generated once and reused for every page, which
keeps the result ordering stable across pages.`,
	Example: `  # Search with default settings
  xhsclient search coffee

  # Fetch 60 results sorted by recency
  xhsclient search coffee --count 60 --sort time_descending`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchCount, "count", "n", xhs.SearchPageSize, "number of notes to fetch")
	searchCmd.Flags().StringVar(&searchSort, "sort", xhs.SortGeneral, "sort order (general, time_descending, popularity_descending)")
	searchCmd.Flags().BoolVar(&searchSummary, "summary", false, "output flattened note summaries")
}

func runSearch(cmd *cobra.Command, args []string) error {
	keyword := strings.TrimSpace(args[0])

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}

	notes, err := client.Search(ctx, keyword, searchSort, searchCount)
	if err != nil {
		return err
	}

	if searchSummary {
		return printJSON(summarizeNotes(notes))
	}
	return printJSON(notes)
}
