package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xhsclient/pkg/token"
)

// statusCmd checks the token server health and prints its statistics
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check token server health and statistics",
	Long: `Check whether the token server is responding and print its token
generation statistics. Does not require a cookie file.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	manager, err := token.NewManager(token.Options{
		ServerURL:          cfg.TokenServer.URL,
		APIKey:             cfg.TokenServer.APIKey,
		Timeout:            cfg.TokenServer.Timeout,
		HealthTimeout:      cfg.TokenServer.HealthTimeout,
		InsecureSkipVerify: cfg.TokenServer.InsecureSkipVerify,
		Retry:              &cfg.Retry,
	}, log)
	if err != nil {
		return err
	}

	if !manager.HealthCheck(ctx) {
		return fmt.Errorf("token server is not responding: %s", cfg.TokenServer.URL)
	}
	fmt.Printf("Token server is healthy: %s\n", cfg.TokenServer.URL)

	stats, err := manager.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch statistics: %w", err)
	}

	return printJSON(stats)
}
