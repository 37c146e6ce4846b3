package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anortham/tusk-sub002/internal/gitmeta"
	"github.com/anortham/tusk-sub002/pkg/models"
)

func NewCheckpointCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint <description>",
		Short: "Record a work checkpoint",
		Long:  `Append a checkpoint describing work done. Git branch, commit and touched files are captured automatically when inside a repository.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeCheckpointRunner(a),
	}

	cmd.Flags().StringP("project", "p", "", "Project name (default: current directory name)")
	cmd.Flags().StringSliceP("tags", "t", nil, "Tags for this checkpoint")
	cmd.Flags().Bool("no-git", false, "Skip git metadata capture")
	return cmd
}

func makeCheckpointRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		description := args[0]
		if description == "" {
			return fmt.Errorf("description must not be empty")
		}

		project, _ := cmd.Flags().GetString("project")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		noGit, _ := cmd.Flags().GetBool("no-git")

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		if project == "" {
			project = filepath.Base(cwd)
		}

		entry := models.NewCheckpointEntry(description)
		entry.Project = project
		entry.Tags = tags

		if !noGit {
			if info := gitmeta.Capture(cwd); info != nil {
				entry.GitBranch = info.Branch
				entry.GitCommit = info.Commit
				entry.Files = info.Files
			}
		}

		if err := a.checkpoints.SaveCheckpoint(cmd.Context(), entry); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		if err := a.index.UpsertDocument(cmd.Context(), entry.ID, entry); err != nil {
			// Index maintenance failures never lose the checkpoint itself.
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: index update failed: %v\n", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s recorded\n", entry.ID)
		return nil
	}
}

func NewDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			// De-index before the row leaves the store.
			if err := a.index.RemoveDocument(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: index removal failed: %v\n", err)
			}

			deleted, err := a.checkpoints.DeleteCheckpoint(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("delete checkpoint: %w", err)
			}
			if !deleted {
				return fmt.Errorf("no checkpoint with id %s", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s deleted\n", id)
			return nil
		},
	}
}
