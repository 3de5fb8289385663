package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cquispe/eoi-consolidator/constants"
)

func newCollectCommand() *cobra.Command {
	var runlogPath string
	cmd := &cobra.Command{
		Use:   "collect <process-dir>",
		Short: "Classify, extract and score every candidate folder without writing outputs",
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
			report, err := proc.Collect(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, r := range report.Results {
				switch r.Status {
				case constants.StatusParsed:
					fmt.Printf("%-8s %s  %s  total=%.2f\n", r.Status, r.Folder, r.Record.Name, r.Score.Total)
				default:
					fmt.Printf("%-8s %s  %v\n", r.Status, r.Folder, r.Err)
				}
			}
			fmt.Printf("run %s: %d parsed, %d skipped, %d failed\n",
				report.RunID, report.Parsed, report.Skipped, report.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&runlogPath, "runlog", "", "SQLite file for per-candidate run events (empty disables)")
	return cmd
}
