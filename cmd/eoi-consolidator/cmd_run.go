package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var runlogPath string
	cmd := &cobra.Command{
		Use:   "run <process-dir>",
		Short: "Run the full pipeline: classify, extract, score, fill and export",
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
			report, err := proc.Run(cmd.Context(), dir)
			if report != nil {
				fmt.Printf("run %s: %d parsed, %d skipped, %d failed\n",
					report.RunID, report.Parsed, report.Skipped, report.Failed)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&runlogPath, "runlog", "", "SQLite file for per-candidate run events (empty disables)")
	return cmd
}
