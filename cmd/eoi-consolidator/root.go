package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eoi-consolidator",
		Short: "Consolidates EOI candidate submissions into the evaluation workbook",
		Long: `eoi-consolidator processes a selection process directory: it picks the best
submission file in each candidate folder, extracts a normalized record from
spreadsheets or PDFs, scores it against the configured criteria, fills the
committee evaluation workbook and writes consolidated CSV/JSONL/XLSX outputs.`,
		Version:      version,
		SilenceUsage: true,
	}

	debug := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "config.json", "Path to the JSON configuration file")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if *debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCollectCommand())
	cmd.AddCommand(newFillCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newWatchCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}
