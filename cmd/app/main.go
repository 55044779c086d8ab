package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"FinSignal/internal/di"
	"FinSignal/pkg/config"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	manual     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "finsignal",
		Short:         "Bybit kline signal scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start("")
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Perform a single run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return start("once")
		},
	}
	runCmd.Flags().BoolVar(&manual, "manual", false, "scan every configured interval regardless of the clock")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run at every minute boundary and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return start("serve")
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("finsignal version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// start loads config and runs the app. An empty mode keeps the configured one.
func start(mode string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if manual {
		cfg.Pipeline.ManualRun = true
	}
	if err := cfg.ValidateCredentials(); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			return fmt.Errorf("%w (set BOT_TOKEN and CHAT_ID, or NOTIFIER=log for a dry run)", err)
		}
		return err
	}

	log.Printf("env=%s mode=%s notifier=%s", cfg.Environment, cfg.Mode, cfg.Notifier.Type)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	return app.Run()
}
