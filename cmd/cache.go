/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/autocorrect/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the correction memory",
	Long: `List, inspect, and clear the SQLite correction memory.

Batches accepted during a run are remembered and reused on later runs
without contacting DeepL. The database is set with --cache or cache.path.`,
}

// openCache opens the configured correction memory for a cache subcommand.
func openCache(cmd *cobra.Command) (*store.Store, error) {
	cfg, _, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		return nil, errors.New("no correction memory configured (use --cache or cache.path)")
	}
	if _, err := os.Stat(cfg.Cache.Path); err != nil {
		return nil, fmt.Errorf("correction memory not found: %w", err)
	}
	return openMemory(cfg)
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all correction memory entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListCorrections(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No entries in correction memory.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLANG\tUSED\tLAST USED\tINVALID\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\t%s\n",
				e.ID, e.Language, e.UsageCount,
				e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, snippet(e.SourceText, 40))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show correction memory statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total entries:   %d\n", stats.TotalEntries)
		fmt.Fprintf(out, "Active entries:  %d\n", stats.ActiveEntries)
		fmt.Fprintf(out, "Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Fprintf(out, "Total usage:     %d\n", stats.TotalUsage)
		fmt.Fprintf(out, "Runs:            %d\n", stats.Runs)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a correction memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.DeleteCorrection(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		if !deleted {
			return fmt.Errorf("entry not found: %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry: %s\n", args[0])
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Keep an entry but stop reusing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InvalidateCorrection(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Invalidated entry: %s\n", args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from correction memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearCorrections(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from correction memory.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
