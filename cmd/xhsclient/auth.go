package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xhsclient/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage token server credentials",
	Long: `Manage stored token server credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your API key or credential files!`,
}

// loginCmd stores a credential profile
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a token server API key securely",
	Long: `Store a token server API key in the system keychain or an
encrypted file. The profile name defaults to "default".

You will be prompted for:
  - Token server URL
  - API key (input is hidden)`,
	Example: `  # Store the default profile
  xhsclient auth login

  # Store a named profile
  xhsclient auth login staging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd removes a credential profile
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Long:  `Remove a stored credential profile. Defaults to "default".`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd lists stored profiles
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential profiles",
	Long:  `List all stored credential profiles with the API key masked.`,
	RunE:  runList,
}

// guideCmd prints the cookie extraction guide
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the cookie extraction guide",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCookieExtractionGuide()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(guideCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Token server URL: ")
	serverURL, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read server URL: %w", err)
	}
	serverURL = strings.TrimSpace(serverURL)

	apiKey, err := readSecret("API key: ")
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("API key must not be empty")
	}

	cred := &auth.Credential{
		Name:      profile,
		ServerURL: serverURL,
		APIKey:    apiKey,
	}

	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Credentials stored for profile %q\n", profile)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = strings.TrimSpace(args[0])
	}

	if err := manager.Delete(profile); err != nil {
		return err
	}

	fmt.Printf("Credentials removed for profile %q\n", profile)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}

	if len(creds) == 0 {
		fmt.Println("No stored credentials.")
		fmt.Println("Run 'xhsclient auth login' to store an API key.")
		return nil
	}

	for _, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		fmt.Printf("%s\n", sanitized.Name)
		if sanitized.ServerURL != "" {
			fmt.Printf("  server:   %s\n", sanitized.ServerURL)
		}
		fmt.Printf("  api key:  %s\n", sanitized.APIKey)
		fmt.Printf("  modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// readSecret prompts for a value without echoing it
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
