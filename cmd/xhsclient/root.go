package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"xhsclient/pkg/archive"
	"xhsclient/pkg/auth"
	"xhsclient/pkg/config"
	"xhsclient/pkg/logger"
	"xhsclient/pkg/xhs"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	tokenServerURL string
	apiKey         string
	cookiesPath    string
	archiveDir     string
	rateLimit      int
	outputPretty   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xhsclient",
	Short: "A XiaoHongShu web API client backed by a token server",
	Long: `xhsclient is a command-line client for the XiaoHongShu web API.

The web API requires signed X-S and X-S-Common headers. xhsclient does not
generate them itself; it delegates signing to a remote token server and
combines the tokens with browser-exported cookies.

Features:
  - Homefeed, search, comments, related posts and user endpoints
  - Cursor-based pagination handled for you
  - Token caching, retry with exponential backoff and rate limiting
  - Resumable multi-page crawls with checkpoints
  - Optional response archiving to disk
  - Secure API key storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.xhsclient.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&tokenServerURL, "token-server", "", "token server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "token server API key")
	rootCmd.PersistentFlags().StringVar(&cookiesPath, "cookies", "", "path to the cookies JSON file")
	rootCmd.PersistentFlags().StringVar(&archiveDir, "archive-dir", "", "directory for archived responses")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute")
	rootCmd.PersistentFlags().BoolVar(&outputPretty, "pretty", true, "pretty-print JSON output")

	rootCmd.SetVersionTemplate(`xhsclient {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags into the config merge map
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if tokenServerURL != "" {
		flags["token-server"] = tokenServerURL
	}
	if apiKey != "" {
		flags["api-key"] = apiKey
	}
	if cookiesPath != "" {
		flags["cookies"] = cookiesPath
	}
	if archiveDir != "" {
		flags["archive-dir"] = archiveDir
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadConfig loads configuration and initializes the logger
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Fall back to stored credentials when no API key was configured.
	// config.Load does not require credentials, so a key stored via
	// 'auth login' is picked up here.
	if cfg.TokenServer.APIKey == "" {
		if manager, err := auth.NewManager(); err == nil {
			if cred, err := manager.RetrieveDefault(); err == nil {
				cfg.TokenServer.APIKey = cred.APIKey
				if cred.ServerURL != "" && tokenServerURL == "" {
					cfg.TokenServer.URL = cred.ServerURL
				}
			}
		}
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}

// newClient builds a ready-to-use API client from the configuration,
// attaching the response archive when enabled
func newClient(ctx context.Context, cfg *config.Config, log logger.Logger) (*xhs.Client, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	client, err := xhs.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.Archive.Enabled {
		recorder, err := archive.NewManager(cfg.Archive.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive: %w", err)
		}
		client.SetRecorder(recorder)
	}

	return client, nil
}

// commandContext returns a context cancelled on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printJSON writes a value to stdout as JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if outputPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
