package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "LeaseLens"
	version = "v1.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "leaselens",
		Short:   "Rental negotiation opportunity scoring",
		Version: version,
		Long: `LeaseLens scores rental units for negotiation leverage: a 0-100
opportunity score, predicted concessions with dollar values, expected
savings, success probability, and a plain-language recommendation.

Use 'analyze' to score a file of properties, or 'serve' to host the
scoring API.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults baked in)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newServeCmd())

	cobra.OnInitialize(func() {
		level, err := zerolog.ParseLevel(mustString(rootCmd, "log-level"))
		if err != nil {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.PersistentFlags().GetString(name)
	return v
}
