package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble/pkg/adapters/memory"
	mcpAdapter "github.com/aretw0/bramble/pkg/adapters/mcp"
	"github.com/aretw0/bramble/pkg/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server, so agent hosts can validate plans
and step simulation sessions as tools.

Supported transports:
- stdio (default): Standard Input/Output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	engine, err := loadEngine(cmd, args)
	if err != nil {
		return err
	}

	sessions := session.NewManager(memory.NewStore(), session.WithLogger(logger))
	srv := mcpAdapter.NewServer(engine, sessions, mcpAdapter.WithLogger(logger))

	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	switch transport {
	case "stdio":
		// Keep stdout clean for JSON-RPC.
		log.SetOutput(os.Stderr)
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("starting MCP server (SSE)", "port", port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
			return err
		}
		logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
	}
}
