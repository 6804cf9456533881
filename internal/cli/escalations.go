package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantforge/forge/internal/core/config"
	"github.com/quantforge/forge/internal/core/domain"
	redisclient "github.com/quantforge/forge/internal/infra/redis"
)

var escalationsCmd = &cobra.Command{
	Use:   "escalations",
	Short: "Show pending escalation counts per failure category",
	Run:   runEscalations,
}

var popEscalationCmd = &cobra.Command{
	Use:   "pop-escalation [category]",
	Short: "Pop the oldest escalation in a category for triage",
	Args:  cobra.ExactArgs(1),
	Run:   runPopEscalation,
}

func init() {
	rootCmd.AddCommand(escalationsCmd)
	rootCmd.AddCommand(popEscalationCmd)
}

func escalationClient() *redisclient.Client {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.URL == "" {
		slog.Error("No redis URL configured, escalation queue unavailable")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runEscalations(cmd *cobra.Command, args []string) {
	client := escalationClient()
	defer func() {
		_ = client.Close()
	}()

	pending, err := client.PendingByCategory(context.Background())
	if err != nil {
		slog.Error("Failed to read escalation queues", "error", err)
		os.Exit(1)
	}

	for _, cat := range []domain.Category{
		domain.CategoryAPIError,
		domain.CategoryCodeError,
		domain.CategoryResourceError,
		domain.CategoryUnknown,
	} {
		fmt.Printf("%-15s %d\n", cat, pending[cat])
	}
}

func runPopEscalation(cmd *cobra.Command, args []string) {
	client := escalationClient()
	defer func() {
		_ = client.Close()
	}()

	esc, found, err := client.PopEscalation(context.Background(), domain.Category(args[0]))
	if err != nil {
		slog.Error("Failed to pop escalation", "error", err)
		os.Exit(1)
	}
	if !found {
		fmt.Println("Queue empty")
		return
	}

	fmt.Printf("ID:       %s\n", esc.ID)
	fmt.Printf("Service:  %s\n", esc.Service)
	fmt.Printf("Method:   %s\n", esc.Method)
	fmt.Printf("Category: %s\n", esc.Category)
	fmt.Printf("Attempts: %d\n", esc.Attempts)
	fmt.Printf("Raised:   %s\n", esc.RaisedAt)
	fmt.Printf("Message:  %s\n", esc.Message)
}
