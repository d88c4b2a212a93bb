package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "bramble",
	Short: "Bramble models planning problems and simulates plans against them",
	Long: `Bramble loads planning problems from YAML documents and replays plans
against them, step by step or on a temporal timeline. It can also serve a
problem over HTTP or MCP for interactive simulation sessions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("problem", "f", "problem.yaml", "Path to the problem document")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}

// newLogger builds the logger from the --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// loadEngine loads the problem named by --problem (or the first positional
// argument when given).
func loadEngine(cmd *cobra.Command, args []string) (*bramble.Engine, error) {
	path, _ := cmd.Flags().GetString("problem")
	if !cmd.Flags().Changed("problem") && len(args) > 0 {
		path = args[0]
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	return bramble.LoadFile(path, bramble.WithLogger(logger))
}
