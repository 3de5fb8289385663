package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/pipeline"
	"github.com/cquispe/eoi-consolidator/internal/runlog"
)

// buildProcessor loads configuration, opens the run log and wires the
// pipeline. The returned cleanup closes the run log.
func buildProcessor(cmd *cobra.Command, runlogPath string) (*pipeline.Processor, *common.Config, func(), error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := common.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger := slog.Default()

	var store *runlog.Store
	cleanup := func() {}
	if runlogPath != "" {
		store, err = runlog.Open(runlogPath, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("runlog close error", "error", cerr)
			}
		}
	}

	return pipeline.NewProcessor(cfg, store, logger), cfg, cleanup, nil
}

// resolveProcessDir resolves the process directory argument against the
// configured input root.
func resolveProcessDir(cfg *common.Config, arg string) (string, error) {
	if filepath.IsAbs(arg) {
		return arg, nil
	}
	if cfg.InputRoot == "" {
		return "", fmt.Errorf("relative process dir %q needs input_root in config", arg)
	}
	return filepath.Join(cfg.InputRoot, arg), nil
}
