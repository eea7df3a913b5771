package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"jack/internal/config"
	"jack/internal/memory"
)

// memoryCmd inspects and edits long-term memory directly, bypassing
// the pipeline.
var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit long-term memory",
}

func openStore() (*memory.Store, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	dbPath := cfg.Memory.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(home, "memory.db")
	}
	return memory.NewStore(dbPath)
}

var memoryGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one memory value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		value, found, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no value for key %q", args[0])
		}
		fmt.Printf("%v\n", value)
		return nil
	},
}

var memorySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store one memory value",
	Long: `Store one memory value. The value is typed the way it parses:
true/false become booleans, null becomes null, numbers stay numbers,
everything else is a string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Set(args[0], parseValue(args[1]))
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete one memory value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(args[0])
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List memory keys, optionally within a namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			values, err := store.Namespace(args[0])
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s = %v\n", k, values[k])
			}
			return nil
		}

		keys, err := store.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

// parseValue types a CLI argument the same way plugin values are
// typed: boolean, null, number, or string.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func init() {
	memoryCmd.AddCommand(memoryGetCmd)
	memoryCmd.AddCommand(memorySetCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryListCmd)
}
