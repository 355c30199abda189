// Command kzg manages KZG artifacts: trusted setup files and BGMW
// precomputation tables.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:           "kzg",
		Short:         "KZG trusted setup and precomputation table tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		setupCommand(logger),
		precomputeCommand(logger),
		inspectCommand(logger),
	)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
