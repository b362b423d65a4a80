// Command oncall runs the on-call incident service and its maintenance tasks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/app"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/config"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "oncall",
	Short:         "On-call incident lifecycle service",
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	loadDotEnv()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ONCALL_CONFIG"), "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	rootCmd.AddCommand(serveCmd(), sweepCmd(), migrateCmd(), reportCmd(), incidentsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadDotEnv reads .env from the working directory when present.
// Variables already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: failed to load .env:", err)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// withApp builds the application without starting servers or the scheduler.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Scheduler.Enabled = false

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
