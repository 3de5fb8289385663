package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cquispe/eoi-consolidator/internal/watch"
)

func newWatchCommand() *cobra.Command {
	var runlogPath string
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <process-dir>",
		Short: "Watch for new submissions and re-run the pipeline on changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, cfg, cleanup, err := buildProcessor(cmd, runlogPath)
			if err != nil {
				return err
			}
			defer cleanup()

			dir, err := resolveProcessDir(cfg, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			events, watchErrs, err := watch.Start(ctx, watch.Config{
				Root:     filepath.Join(dir, cfg.Folders.EOIReceived),
				Debounce: debounce,
			}, slog.Default())
			if err != nil {
				return err
			}

			fmt.Printf("watching %s\n", dir)
			for {
				select {
				case <-ctx.Done():
					return nil
				case folder, ok := <-events:
					if !ok {
						return nil
					}
					slog.Info("change detected, re-running", "folder", folder)
					report, err := proc.Run(ctx, dir)
					if err != nil {
						slog.Error("run failed", "error", err)
						continue
					}
					fmt.Printf("run %s: %d parsed, %d skipped, %d failed\n",
						report.RunID, report.Parsed, report.Skipped, report.Failed)
				case werr, ok := <-watchErrs:
					if ok && werr != nil {
						slog.Warn("watch error", "error", werr)
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&runlogPath, "runlog", "", "SQLite file for per-candidate run events (empty disables)")
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "Delay before reacting to a burst of file changes")
	return cmd
}
