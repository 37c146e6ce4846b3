package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anortham/tusk-sub002/internal/recall"
	"github.com/anortham/tusk-sub002/pkg/relevance"
)

func NewRecallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Recall relevant checkpoints",
		Long:  `Select, deduplicate and rank past checkpoints to restore context. Similar entries are consolidated into one representative.`,
		RunE:  makeRecallRunner(a),
	}

	cmd.Flags().IntP("days", "d", 0, "Restrict to the last N days (0 = no window)")
	cmd.Flags().StringP("search", "s", "", "Free-text query (AND/OR and quoted phrases supported)")
	cmd.Flags().StringP("project", "p", "", "Restrict to a project")
	cmd.Flags().Float64("threshold", 0, "Similarity threshold for deduplication")
	cmd.Flags().IntP("limit", "n", 0, "Maximum entries returned")
	cmd.Flags().Bool("json", false, "Output JSON")
	return cmd
}

func makeRecallRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		query, _ := cmd.Flags().GetString("search")
		project, _ := cmd.Flags().GetString("project")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		if threshold == 0 {
			threshold = a.cfg.SimilarityThreshold
		}
		if limit == 0 {
			limit = a.cfg.ResultLimit
		}

		result, err := a.recaller.Recall(cmd.Context(), recall.Options{
			Days:                days,
			Search:              query,
			Project:             project,
			SimilarityThreshold: threshold,
			ResultLimit:         limit,
			Weights:             &a.cfg.Weights,
		})
		if err != nil {
			return fmt.Errorf("recall: %w", err)
		}

		if asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		}

		printRecall(cmd, result)
		return nil
	}
}

func printRecall(cmd *cobra.Command, result *recall.Result) {
	out := cmd.OutOrStdout()
	for _, entry := range result.Entries {
		fmt.Fprintf(out, "%s  %.2f  %s\n",
			entry.Timestamp().Format("2006-01-02 15:04"),
			entry.Relevance,
			entry.Description)
	}

	s := result.Stats
	fmt.Fprintf(out, "\n%d considered, %d clusters, %d merged away (threshold %.2f)\n",
		s.TotalConsidered, s.ClustersFormed, s.MergedAway, s.Threshold)
	if s.FallbackUsed {
		fmt.Fprintln(out, "(search used the substring fallback path)")
	}
}

func NewStandupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standup",
		Short: "Summarize recent work, standup style",
		RunE:  makeStandupRunner(a),
	}

	cmd.Flags().IntP("days", "d", 1, "How many days back to report")
	return cmd
}

func makeStandupRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")

		result, err := a.recaller.Recall(cmd.Context(), recall.Options{
			Days:    days,
			Weights: &a.cfg.Weights,
		})
		if err != nil {
			return fmt.Errorf("recall: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(result.Entries) == 0 {
			fmt.Fprintln(out, "No checkpoints recorded in this window.")
			return nil
		}

		byProject := make(map[string][]relevance.ScoredEntry)
		var order []string
		for _, entry := range result.Entries {
			project := entry.Project
			if project == "" {
				project = "(no project)"
			}
			if _, seen := byProject[project]; !seen {
				order = append(order, project)
			}
			byProject[project] = append(byProject[project], entry)
		}

		fmt.Fprintf(out, "Standup for %s:\n", time.Now().Format("2006-01-02"))
		for _, project := range order {
			fmt.Fprintf(out, "\n%s:\n", project)
			for _, entry := range byProject[project] {
				fmt.Fprintf(out, "  - %s\n", entry.Description)
			}
		}
		return nil
	}
}
