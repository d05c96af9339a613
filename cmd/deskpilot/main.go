// Package main provides the CLI entrypoint for deskpilot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/domain/automation"
	"github.com/deskpilot/deskpilot/internal/infrastructure/config"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/server"
)

var version = "dev"

var (
	serveHost string
	servePort string
	dataDir   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "deskpilot",
		Short:         "Desktop activity tracker and automation service",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServeCmd,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides DESKPILOT_DATA_DIR)")
	rootCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides DESKPILOT_HOST)")
	rootCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides DESKPILOT_PORT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker service",
		RunE:  runServeCmd,
	}
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides DESKPILOT_HOST)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides DESKPILOT_PORT)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "automations",
		Short: "List stored automations",
		RunE:  runAutomationsCmd,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("deskpilot", version)
		},
	})

	return rootCmd
}

func loadConfig() *config.Config {
	cfg := config.LoadOrDefault()
	if dataDir != "" {
		cfg.Data.Dir = dataDir
		cfg.Data.DatabasePath = ""
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	return cfg
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func runAutomationsCmd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := automation.NewStore(cfg.AutomationDir(), logging.Nop())
	if err != nil {
		return err
	}
	list := store.List()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	if len(list) == 0 {
		fmt.Println("no automations recorded")
		return nil
	}
	for _, a := range list {
		fmt.Printf("%-30s steps=%-4d duration=%.1fs executions=%d\n",
			a.Name, len(a.Steps), a.Duration, a.ExecutionCount)
	}
	return nil
}
