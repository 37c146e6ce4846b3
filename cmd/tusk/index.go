package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the full-text search index",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		newIndexStatusCmd(a),
		newIndexMigrateCmd(a),
		newIndexRollbackCmd(a),
		newIndexRebuildCmd(a),
		newIndexOptimizeCmd(a),
		newIndexStatsCmd(a),
	)
	return cmd
}

func newIndexStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := a.index.Migration().Status()
			fmt.Fprintf(cmd.OutOrStdout(), "State:    %s\nProgress: %d%%\n", status.State, status.Progress)
			if status.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Error:    %s\n", status.Error)
			}
			if a.index.Migration().IsMigrationNeeded(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Search uses the naive substring path; run 'tusk index migrate' to build the FTS index.")
			}
			return nil
		},
	}
}

func newIndexMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Build the FTS index from existing checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.index.Migration().IsMigrationNeeded(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "FTS index already exists")
				return nil
			}
			if err := a.index.Migration().MigrateToFTS(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "FTS index built; indexed search active")
			return nil
		},
	}
}

func newIndexRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Drop the FTS index and revert to substring search",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.index.Migration().RollbackFTSMigration(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "FTS index dropped; substring search active")
			return nil
		},
	}
}

func newIndexRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the FTS index from the checkpoint table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.index.Rebuild(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "FTS index rebuilt")
			return nil
		},
	}
}

func newIndexOptimizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Optimize FTS index storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.index.Optimize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "FTS index optimized")
			return nil
		},
	}
}

func newIndexStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.index.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents:     %d\n", stats.DocumentCount)
			fmt.Fprintf(out, "Terms:         %d\n", stats.TermCount)
			fmt.Fprintf(out, "Index size:    %d bytes\n", stats.IndexBytes)
			if stats.LastRebuild != "" {
				fmt.Fprintf(out, "Last rebuild:  %s\n", stats.LastRebuild)
			}
			fmt.Fprintf(out, "Avg query:     %.2f ms\n", stats.AvgQueryMillis)
			return nil
		},
	}
}
