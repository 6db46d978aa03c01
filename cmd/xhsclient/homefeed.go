package main

import (
	"github.com/spf13/cobra"

	"xhsclient/pkg/xhs"
)

var (
	homefeedCount   int
	homefeedSummary bool
)

// homefeedCmd fetches posts from the recommendation feed
var homefeedCmd = &cobra.Command{
	Use:   "homefeed",
	Short: "Fetch posts from the recommendation feed",
	Long: `Fetch posts from the personalized recommendation feed.

Pagination is handled automatically: the command keeps requesting pages
with the returned cursor until the requested number of posts is reached.`,
	Example: `  # Fetch 20 posts
  xhsclient homefeed

  # Fetch 100 posts as flattened summaries
  xhsclient homefeed --count 100 --summary`,
	Args: cobra.NoArgs,
	RunE: runHomefeed,
}

func init() {
	rootCmd.AddCommand(homefeedCmd)

	homefeedCmd.Flags().IntVarP(&homefeedCount, "count", "n", xhs.MaxHomefeedNum, "number of posts to fetch")
	homefeedCmd.Flags().BoolVar(&homefeedSummary, "summary", false, "output flattened note summaries")
}

func runHomefeed(cmd *cobra.Command, args []string) error {
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

	posts, err := client.GetHomefeedPosts(ctx, homefeedCount)
	if err != nil {
		return err
	}

	if homefeedSummary {
		return printJSON(summarizeNotes(posts))
	}
	return printJSON(posts)
}

// summarizeNotes flattens note items for compact output
func summarizeNotes(notes []xhs.NoteItem) []xhs.NoteInfo {
	infos := make([]xhs.NoteInfo, 0, len(notes))
	for i := range notes {
		infos = append(infos, notes[i].Info())
	}
	return infos
}
