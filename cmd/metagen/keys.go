package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stockmeta/internal/domain"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the API key pool of a provider",
}

var keysListCmd = &cobra.Command{
	Use:   "list <provider>",
	Short: "List masked keys in rotation order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseProvider(args[0])
		if err != nil {
			return err
		}
		e, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		entries, err := e.deps.Keys.Entries(cmd.Context(), p)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no keys configured for %s\n", p.Label())
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", entry.Index, entry.Masked, entry.Source)
		}
		return nil
	},
}

var keysAddCmd = &cobra.Command{
	Use:   "add <provider> <key>",
	Short: "Append a key to the stored pool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseProvider(args[0])
		if err != nil {
			return err
		}
		e, err := openStored(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return e.deps.Keys.Keyring().Add(cmd.Context(), p, args[1])
	},
}

var keysRemoveCmd = &cobra.Command{
	Use:   "remove <provider> <index>",
	Short: "Remove the key at index from the stored pool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseProvider(args[0])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be a number: %w", err)
		}
		e, err := openStored(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		if err := e.deps.Keys.Keyring().Remove(cmd.Context(), p, index); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no key at index %d for %s", index, p.Label())
			}
			return err
		}
		return nil
	},
}

// openStored refuses to edit keys that would only live for this process.
func openStored(cmd *cobra.Command) (*env, error) {
	e, err := open(cmd.Context())
	if err != nil {
		return nil, err
	}
	if e.cfg.DatabaseURL == "" {
		e.close()
		return nil, errors.New("storing keys requires DATABASE_URL; set the <PROVIDER>_API_KEYS environment variable instead")
	}
	return e, nil
}

func parseProvider(raw string) (domain.Provider, error) {
	p, ok := domain.ParseProvider(raw)
	if !ok {
		return "", fmt.Errorf("unsupported provider %q", raw)
	}
	return p, nil
}

func init() {
	keysCmd.AddCommand(keysListCmd, keysAddCmd, keysRemoveCmd)
	rootCmd.AddCommand(keysCmd)
}
