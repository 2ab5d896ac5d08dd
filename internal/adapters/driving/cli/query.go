package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspect stored classification results",
}

var querySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the per-category distribution across the store",
	Args:  cobra.NoArgs,
	RunE:  runQuerySummary,
}

var queryGroupCmd = &cobra.Command{
	Use:   "group <group-path>",
	Short: "List every stored page of one exam directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryGroup,
}

var queryTypeCmd = &cobra.Command{
	Use:   "type <category>",
	Short: "List stored pages carrying one category, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryType,
}

func init() {
	queryCmd.PersistentFlags().String("db", "", "SQLite database path (default ~/.satexam/data/results.db)")
	queryTypeCmd.Flags().Int("limit", 20, "maximum rows to print")
	queryTypeCmd.Flags().Int("offset", 0, "rows to skip")

	queryCmd.AddCommand(querySummaryCmd)
	queryCmd.AddCommand(queryGroupCmd)
	queryCmd.AddCommand(queryTypeCmd)
	rootCmd.AddCommand(queryCmd)
}

// queryStore opens the store for a query subcommand.
func queryStore(cmd *cobra.Command) (driven.ResultStore, error) {
	if openStore == nil {
		return nil, errors.New("store not configured")
	}
	dbPath := baseConfig.DBPath
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		dbPath = v
	}
	return openStore(dbPath)
}

func runQuerySummary(cmd *cobra.Command, _ []string) error {
	store, err := queryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Summary(context.Background())
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}

	if summary.Total == 0 {
		cmd.Println("Store is empty.")
		return nil
	}

	cmd.Printf("Total pages: %d\n\n", summary.Total)
	for _, cc := range summary.Distribution {
		cmd.Printf("  %-40s %5d (%.1f%%)\n", cc.Category.Description(), cc.Count, cc.Percent)
	}
	return nil
}

func runQueryGroup(cmd *cobra.Command, args []string) error {
	store, err := queryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListByGroup(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("listing group: %w", err)
	}
	if len(records) == 0 {
		cmd.Printf("No results stored for %s\n", args[0])
		return nil
	}

	for _, rec := range records {
		cmd.Printf("  %-12s %-36s %.2f %s\n", rec.ItemKey, rec.Category, rec.Confidence, rec.Strategy)
	}
	cmd.Printf("\n%d page(s)\n", len(records))
	return nil
}

func runQueryType(cmd *cobra.Command, args []string) error {
	category, err := domain.ParseQuestionType(args[0])
	if err != nil {
		return err
	}

	store, err := queryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	records, err := store.ListByCategory(context.Background(), category, limit, offset)
	if err != nil {
		return fmt.Errorf("listing category: %w", err)
	}
	if len(records) == 0 {
		cmd.Printf("No results stored for %s\n", category)
		return nil
	}

	cmd.Printf("%s - %s\n\n", category, category.Description())
	for _, rec := range records {
		cmd.Printf("  %s/%s  %.2f %s\n", rec.GroupPath, rec.ItemKey, rec.Confidence, rec.Strategy)
	}
	cmd.Printf("\n%d page(s) shown (offset %d)\n", len(records), offset)
	return nil
}
