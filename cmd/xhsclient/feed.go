package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xhsclient/pkg/xhs"
)

var (
	feedNum     int
	feedToken   string
	feedSummary bool
)

// feedCmd fetches posts related to a note
var feedCmd = &cobra.Command{
	Use:   "feed <note-id>",
	Short: "Fetch posts related to a note",
	Long: `Fetch posts related to a source note.

The xsec_token returned alongside the source note is required; tokens are
bound to the note they were returned with and cannot be reused for other
notes. Pass one from a homefeed or search result with --xsec-token, or
omit the flag and the command will scan the homefeed for the note.`,
	Example: `  # Fetch related posts
  xhsclient feed 64a1b2c3d4e5f60001000000 --xsec-token ABfC...

  # Resolve the xsec_token from the homefeed
  xhsclient feed 64a1b2c3d4e5f60001000000

  # Flattened summaries
  xhsclient feed 64a1b2c3d4e5f60001000000 --xsec-token ABfC... --summary`,
	Args: cobra.ExactArgs(1),
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().IntVarP(&feedNum, "num", "n", xhs.MaxFeedNum, "number of related posts to request")
	feedCmd.Flags().StringVar(&feedToken, "xsec-token", "", "xsec_token returned with the source note")
	feedCmd.Flags().BoolVar(&feedSummary, "summary", false, "output flattened note summaries")
}

func runFeed(cmd *cobra.Command, args []string) error {
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

	token := feedToken
	if token == "" {
		token, err = resolveXsecToken(ctx, client, noteID)
		if err != nil {
			return err
		}
	}

	source := &xhs.NoteItem{ID: noteID, XsecToken: token}
	related, err := client.GetRelatedPosts(ctx, source, feedNum)
	if err != nil {
		return err
	}

	if feedSummary {
		return printJSON(summarizeNotes(related))
	}
	return printJSON(related)
}

// resolveXsecToken scans the homefeed for the note and returns the
// xsec_token it was served with.
func resolveXsecToken(ctx context.Context, client *xhs.Client, noteID string) (string, error) {
	notes, err := client.GetHomefeedPosts(ctx, xhs.MaxHomefeedNum)
	if err != nil {
		return "", err
	}
	for i := range notes {
		if notes[i].ID == noteID && notes[i].XsecToken != "" {
			return notes[i].XsecToken, nil
		}
	}
	return "", fmt.Errorf("note %s not found in homefeed; pass --xsec-token from a search or homefeed result", noteID)
}
