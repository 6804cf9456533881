package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantforge/forge/internal/core/config"
	"github.com/quantforge/forge/internal/infra/storage/postgres"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent build iterations and aggregate statistics",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of recent builds to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewBuildRepo(db)

	builds, err := repo.Recent(ctx, statusLimit)
	if err != nil {
		slog.Error("Failed to query builds", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tSTRATEGY\tSTATUS\tFITNESS\tITERATIONS\tDURATION")

	for _, b := range builds {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%d\t%ds\n",
			b.Timestamp.Format(time.RFC3339),
			b.Strategy,
			b.Status,
			b.Fitness,
			b.Iterations,
			b.Duration,
		)
	}
	_ = w.Flush()

	stats, err := repo.Statistics(ctx)
	if err != nil {
		slog.Error("Failed to compute statistics", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nTotal: %d  Success: %d (%.1f%%)  Avg fitness: %.4f  Best: %.4f\n",
		stats.TotalBuilds, stats.SuccessfulBuilds, stats.SuccessRate,
		stats.AvgFitness, stats.BestFitness)
}
