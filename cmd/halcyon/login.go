package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var homeserverFlag string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the homeserver and store the session credentials",
	Long:  "Authenticate with a password and persist the resulting session in the platform keystore. The password is read from the terminal, or from stdin when piped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if homeserverFlag != "" {
			cfg.HomeserverURL = homeserverFlag
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		mgr, _, err := newManager(cfg, "cli")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
		defer cancel()

		sess, err := mgr.Login(ctx, args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (device %s)\n", sess.UserID, sess.DeviceID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and remove stored session credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if homeserverFlag != "" {
			cfg.HomeserverURL = homeserverFlag
		}

		mgr, _, err := newManager(cfg, "cli")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
		defer cancel()

		if err := mgr.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the stored session, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if homeserverFlag != "" {
			cfg.HomeserverURL = homeserverFlag
		}

		mgr, _, err := newManager(cfg, "cli")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
		defer cancel()

		sess, err := mgr.Restore(ctx)
		if err != nil {
			return err
		}
		if sess == nil {
			fmt.Println("No stored session")
			return nil
		}
		fmt.Printf("Restored session for %s (device %s)\n", sess.UserID, sess.DeviceID)
		return nil
	},
}

// readPassword reads a password from the terminal without echo, or from
// stdin when piped.
func readPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		fmt.Println()
		return string(b), nil
	}
	b, err := os.ReadFile("/dev/stdin")
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, logoutCmd, sessionCmd} {
		c.Flags().StringVar(&homeserverFlag, "homeserver", "", "Homeserver base URL (overrides config)")
	}
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(sessionCmd)
}
