package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Raw access to the platform secret store",
	Long:  "Store, retrieve, and remove arbitrary secrets through the same backend that holds session credentials.",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, "cli")
		if err != nil {
			return err
		}
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Enter secret value: ")
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("reading value: %w", err)
			}
			fmt.Println()
			value = string(b)
		} else {
			b, err := os.ReadFile("/dev/stdin")
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			value = strings.TrimRight(string(b), "\n")
		}

		if err := store.Set(cmd.Context(), key, value); err != nil {
			return err
		}
		fmt.Printf("Secret %q stored\n", key)
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Retrieve a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, "cli")
		if err != nil {
			return err
		}
		val, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Remove a secret",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, "cli")
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Secret %q deleted\n", args[0])
		return nil
	},
}

var secretClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret this store has written",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, "cli")
		if err != nil {
			return err
		}
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Secrets cleared")
		return nil
	},
}

var secretStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which storage backend is active and whether it persists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, "cli")
		if err != nil {
			return err
		}
		fmt.Printf("Storage: %s\n", store.Persistence())
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretClearCmd)
	secretCmd.AddCommand(secretStatusCmd)
	rootCmd.AddCommand(secretCmd)
}
