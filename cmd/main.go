package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finassist/internal/bootstrap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:          "finassist",
		Short:        "AI finance assistant: multi-agent financial education over web, Telegram and terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if logLevel != "" {
				_ = os.Setenv("LOG_LEVEL", logLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newChatCmd(),
		newAgentsCmd(),
	)
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI, JSON API, Telegram bot and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container := bootstrap.NewContainer()
			defer container.Shutdown()

			if err := container.InitAssistant(); err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				container.Config.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				container.Config.HTTP.Port = port
			}
			if err := container.InitServer(); err != nil {
				return err
			}
			if err := container.Start(); err != nil {
				return err
			}

			waitForShutdown(container.Context, container)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides HTTP_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides HTTP_PORT)")
	return cmd
}

// waitForShutdown blocks until a signal arrives or a component cancels the
// application context.
func waitForShutdown(ctx context.Context, container *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		container.Log.Infow("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		container.Log.Warn("Application context cancelled")
	}
}

// quietLogs keeps terminal commands readable unless a level was requested.
func quietLogs() {
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		_ = os.Setenv("LOG_LEVEL", "warn")
	}
}

// newAssistantContainer builds the pipeline for the terminal commands.
func newAssistantContainer() (*bootstrap.Container, error) {
	quietLogs()
	container := bootstrap.NewContainer()
	if err := container.InitAssistant(); err != nil {
		container.Shutdown()
		return nil, err
	}
	return container, nil
}

func printErr(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
