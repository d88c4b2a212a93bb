package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/bramble/pkg/adapters/file"
	"github.com/aretw0/bramble/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/bramble/pkg/adapters/redis"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/runner"
	"github.com/aretw0/bramble/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session [problem]",
	Short: "Explore the problem interactively, one action at a time",
	Long: `Starts an interactive session against the problem: each turn shows the
current state and the applicable actions, and applies the one you pick.
With --redis or --dir plus --id the session is persisted, so quitting and
rerunning the command resumes where you left off.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().String("id", "", "Session ID to persist under (default: a fresh UUID)")
	sessionCmd.Flags().String("redis", "", "Redis address for persistent sessions (e.g. localhost:6379)")
	sessionCmd.Flags().String("dir", "", "Directory for file-backed persistent sessions")
}

func runSession(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	redisAddr, _ := cmd.Flags().GetString("redis")
	dir, _ := cmd.Flags().GetString("dir")

	var store ports.SnapshotStore
	switch {
	case redisAddr != "":
		store = redisAdapter.New(redisAddr, "", 0)
		fmt.Printf("Session %s (persisted in Redis)\n", sessionID)
	case dir != "":
		store = file.New(dir)
		fmt.Printf("Session %s (persisted in %s)\n", sessionID, dir)
	default:
		store = memory.NewStore()
	}
	sessions := session.NewManager(store, session.WithLogger(logger))

	r := runner.New(engine,
		runner.WithLogger(logger),
		runner.WithSession(sessions, sessionID))
	if err := r.Run(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "Session error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
