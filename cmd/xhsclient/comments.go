package main

import (
	"strings"

	"github.com/spf13/cobra"

	"xhsclient/pkg/xhs"
)

var (
	commentsCount   int
	commentsSummary bool
)

// commentsCmd fetches comments on a note
var commentsCmd = &cobra.Command{
	Use:   "comments <note-id>",
	Short: "Fetch comments on a note",
	Long: `Fetch comments on a note, following the comment cursor through
every page. Use --count to cap the number of comments.`,
	Example: `  # Fetch all comments
  xhsclient comments 64a1b2c3d4e5f60001000000

  # Fetch the first 50 comments as summaries
  xhsclient comments 64a1b2c3d4e5f60001000000 --count 50 --summary`,
	Args: cobra.ExactArgs(1),
	RunE: runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)

	commentsCmd.Flags().IntVarP(&commentsCount, "count", "n", 0, "maximum comments to fetch (0 = all)")
	commentsCmd.Flags().BoolVar(&commentsSummary, "summary", false, "output flattened comment summaries")
}

func runComments(cmd *cobra.Command, args []string) error {
	noteID := strings.TrimSpace(args[0])

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

	comments, err := client.GetComments(ctx, noteID, commentsCount)
	if err != nil {
		return err
	}

	if commentsSummary {
		summaries := make([]xhs.CommentSummary, 0, len(comments))
		for i := range comments {
			summaries = append(summaries, comments[i].Summary())
		}
		return printJSON(summaries)
	}
	return printJSON(comments)
}
