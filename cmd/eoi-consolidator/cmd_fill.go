package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFillCommand() *cobra.Command {
	var runlogPath string
	cmd := &cobra.Command{
		Use:   "fill <process-dir>",
		Short: "Collect candidates and fill the committee evaluation workbook",
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
			if err := proc.FillWorkbook(cmd.Context(), dir, report); err != nil {
				return err
			}
			fmt.Printf("run %s: filled %d candidates\n", report.RunID, report.Parsed)
			return nil
		},
	}
	cmd.Flags().StringVar(&runlogPath, "runlog", "", "SQLite file for per-candidate run events (empty disables)")
	return cmd
}
