// miot-agent exposes Mijia smart-home devices as callable tools.
//
// Tools are served over MCP (newline-delimited JSON-RPC on stdin/stdout)
// and over an HTTP API. Cloud calls reach the MIoT bridge through an MQTT
// broker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command serves tools.
func newRootCmd() *cobra.Command {
	opts := serveOptions{}

	root := &cobra.Command{
		Use:           "miot-agent",
		Short:         "Serve Mijia device tools over MCP and HTTP",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.stdin = cmd.InOrStdin()
			opts.stdout = cmd.OutOrStdout()
			return run(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", getConfigPath(), "configuration file (env MIOT_CONFIG)")
	root.Flags().StringVarP(&opts.transport, "transport", "t", "", "override server.transport: stdio, http or both")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools (the default command)",
		Args:  cobra.NoArgs,
		RunE:  root.RunE,
	}
	serve.Flags().AddFlagSet(root.Flags())

	root.AddCommand(serve, newToolsCmd(), newConfigCmd(), newMigrateCmd())
	return root
}

// getConfigPath returns MIOT_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("MIOT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
