package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lazycheck/internal/logging"
)

// setupLogger builds the logger from --log-level/--log-json, using
// fallback when the level flag is not set.
func setupLogger(cmd *cobra.Command, fallback string) (*zap.Logger, error) {
	flags := cmd.Root().PersistentFlags()
	levelStr, err := flags.GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	asJSON, err := flags.GetBool("log-json")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-json flag: %w", err)
	}
	if !flags.Changed("log-level") {
		levelStr = fallback
	}
	return logging.New(cmd.ErrOrStderr(), levelStr, asJSON)
}
