package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leaselens/leaselens/internal/application/pipeline"
	"github.com/leaselens/leaselens/internal/config"
	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <batch.json>",
		Short: "Score a file of properties for one tenant",
		Long: `Reads a JSON batch request (tenant profile plus a list of property,
market and behavioral records), scores every property, and prints the
personalized ranking. Output is a table on a terminal, JSON otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("as-of", "", "Pin the evaluation date (YYYY-MM-DD); defaults to now")
	cmd.Flags().Int("lease-term", 0, "Lease term in months (default 12)")
	cmd.Flags().Int("top-n", 0, "Limit output to the N best opportunities")
	cmd.Flags().String("output", "auto", "Output format (auto|table|json)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var req pipeline.BatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}

	if asOf, _ := cmd.Flags().GetString("as-of"); asOf != "" {
		t, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", asOf, err)
		}
		req.AsOf = t
	}
	if term, _ := cmd.Flags().GetInt("lease-term"); term != 0 {
		req.LeaseTermMonths = term
	}

	engine := pipeline.New(cfg.Engine, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	batch, err := engine.AnalyzeBatch(ctx, req)
	if err != nil {
		return err
	}

	for _, itemErr := range batch.Errors {
		log.Warn().Int("index", itemErr.Index).
			Str("property_id", itemErr.PropertyID).
			Str("error", itemErr.Message).
			Msg("Property analysis failed")
	}

	results := batch.Results
	if topN, _ := cmd.Flags().GetInt("top-n"); topN > 0 {
		results = batch.TopN(topN)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "auto" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			output = "table"
		} else {
			output = "json"
		}
	}

	switch output {
	case "table":
		printTable(results)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}

func printTable(results []negotiation.OpportunityResult) {
	fmt.Printf("%-20s %7s %-20s %-13s %9s %9s  %s\n",
		"PROPERTY", "SCORE", "TIER", "CONFIDENCE", "SUCCESS", "SAVINGS", "TOP CONCESSION")
	for _, r := range results {
		top := "-"
		if len(r.Concessions) > 0 {
			top = string(r.Concessions[0].Kind)
		}
		fmt.Printf("%-20s %7.1f %-20s %-13s %8.0f%% %9.2f  %s\n",
			r.PropertyID,
			r.OpportunityScore,
			r.Tier,
			r.Confidence,
			r.SuccessProbability*100,
			r.ExpectedSavings,
			top,
		)
	}
}
