package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"keywatch/internal/config"
	"keywatch/internal/secrets"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add <database-path>",
		Short: "Register a database and store its password in the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}

			password, err := readSecret(cmd, fmt.Sprintf("Password for %s: ", path))
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("empty password; nothing stored")
			}

			if err := ctx.store.Set(cfg.Keywatch.KeyringService, path, password); err != nil {
				return fmt.Errorf("store credential: %w", err)
			}
			cfg.SetDatabase(path, !disabled)
			if err := ctx.saveConfig(); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (enabled: %s)\n", path, yesNo(!disabled))
			return nil
		},
	}

	cmd.Flags().BoolVar(&disabled, "disabled", false, "Register the database without enabling automatic unlock")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepCredential bool

	cmd := &cobra.Command{
		Use:   "remove <database-path>",
		Short: "Unregister a database and delete its stored password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}

			removed := cfg.RemoveDatabase(path)
			if removed {
				if err := ctx.saveConfig(); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
			}

			if !keepCredential {
				if err := ctx.store.Delete(cfg.Keywatch.KeyringService, path); err != nil {
					return fmt.Errorf("delete credential: %w", err)
				}
			}

			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepCredential, "keep-credential", false, "Leave the stored password in the keyring")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.Databases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No databases registered. Use `keywatch add <path>` to register one.")
				return nil
			}

			rows := make([][]string, 0, len(cfg.Databases))
			for _, entry := range cfg.Databases {
				credential := "present"
				if _, err := ctx.store.Lookup(cfg.Keywatch.KeyringService, entry.Path); err != nil {
					if errors.Is(err, secrets.ErrNotFound) {
						credential = "missing"
					} else {
						credential = "unavailable"
					}
				}
				rows = append(rows, []string{entry.Path, yesNo(entry.Enabled), credential})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Database", "Enabled", "Credential"}, rows))
			return nil
		},
	}
}

// readSecret prompts on a terminal without echo; when stdin is not a
// terminal it reads a single line so the command stays scriptable.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("%w: password prompt aborted", errInterrupted)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
