package main

import (
	"github.com/spf13/cobra"

	"github.com/anortham/tusk-sub002/internal/config"
	dbgorm "github.com/anortham/tusk-sub002/internal/db/gorm"
	"github.com/anortham/tusk-sub002/internal/recall"
	"github.com/anortham/tusk-sub002/internal/search"
	"gorm.io/gorm/logger"
)

// app wires the store, search index and recall orchestrator together.
type app struct {
	cfg         *config.Config
	store       *dbgorm.Store
	checkpoints *dbgorm.CheckpointStore
	index       *search.FTSIndex
	engine      *search.Engine
	recaller    *recall.Orchestrator
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     cfg.DatabasePath(),
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		return nil, err
	}

	checkpoints := dbgorm.NewCheckpointStore(store)
	migration := search.NewMigrationManager(store.GetRawDB())
	index := search.NewFTSIndex(store.GetRawDB(), checkpoints, migration)
	engine := search.NewEngine(index)

	return &app{
		cfg:         cfg,
		store:       store,
		checkpoints: checkpoints,
		index:       index,
		engine:      engine,
		recaller:    recall.NewOrchestrator(checkpoints, engine),
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tusk",
		Short:         "Personal work journal with smart recall",
		Long:          `Append checkpoint records describing work done, then recall a deduplicated, relevance-ranked subset to restore context.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.AddCommand(
		NewCheckpointCmd(a),
		NewRecallCmd(a),
		NewStandupCmd(a),
		NewDeleteCmd(a),
		NewIndexCmd(a),
	)

	return rootCmd
}
