package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	userPostsCount int
	userSummary    bool
	userProfile    bool
	userTarget     string
)

// userCmd fetches a user's published notes or profile
var userCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Fetch a user's published notes or profile",
	Long: `Fetch the notes published by a user, paging with the cursor, or
the user's public profile with --profile.`,
	Example: `  # Fetch all of a user's notes
  xhsclient user 5e8d2a3b000000000100xxxx

  # Fetch the first 30 notes as summaries
  xhsclient user 5e8d2a3b000000000100xxxx --count 30 --summary

  # Fetch the profile instead
  xhsclient user 5e8d2a3b000000000100xxxx --profile`,
	Args: cobra.ExactArgs(1),
	RunE: runUser,
}

func init() {
	rootCmd.AddCommand(userCmd)

	userCmd.Flags().IntVarP(&userPostsCount, "count", "n", 0, "maximum notes to fetch (0 = all)")
	userCmd.Flags().BoolVar(&userSummary, "summary", false, "output flattened note summaries")
	userCmd.Flags().BoolVar(&userProfile, "profile", false, "fetch the user's profile instead of their notes")
	userCmd.Flags().StringVar(&userTarget, "target-user", "", "include relationship info relative to this user ID (with --profile)")
}

func runUser(cmd *cobra.Command, args []string) error {
	userID := strings.TrimSpace(args[0])

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

	if userProfile {
		profile, err := client.GetUserProfile(ctx, userID, userTarget)
		if err != nil {
			return err
		}
		return printJSON(profile.Profile())
	}

	notes, err := client.GetUserPosts(ctx, userID, userPostsCount)
	if err != nil {
		return err
	}

	if userSummary {
		return printJSON(summarizeNotes(notes))
	}
	return printJSON(notes)
}
