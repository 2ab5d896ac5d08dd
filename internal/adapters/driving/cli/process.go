package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driving"
)

// maxReportedFailures caps how many failed items the report lists in full.
const maxReportedFailures = 10

var processCmd = &cobra.Command{
	Use:   "process <root-dir>",
	Short: "Recognise, classify and store every exam page under a directory",
	Long: `Walks the directory tree rooted at <root-dir>, treating each
subdirectory as one exam paper and each numbered image as one page.
Pages whose text is already cached as a sidecar or persisted in the
store are skipped unless --force is given.

Interrupting the run with Ctrl-C stops dispatching new pages; pages
already in flight finish and are recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.String("db", "", "SQLite database path (default ~/.satexam/data/results.db)")
	f.Int("workers", 0, "maximum concurrent pages in flight")
	f.Int("retries", 0, "maximum attempts per remote call")
	f.Int("timeout", 0, "per-attempt timeout in seconds")
	f.Float64("rps", 0, "remote requests per second across all workers")
	f.Bool("force", false, "reprocess pages that already have results")
	f.Bool("no-ai", false, "classify with the local rules only")
	f.Int("max-files", 0, "stop after dispatching this many pages (0 = no cap)")
	f.Int("start-from", 0, "skip the first N pages of the ordered sequence")
	f.Int("min-count", 0, "skip exam directories with fewer pages than this")
	f.String("backend", "", "recognition backend: openai or ollama")
	f.String("model", "", "vision model name")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if buildProcessor == nil {
		return errors.New("pipeline not configured")
	}

	cfg := processConfig(cmd, args[0])
	if err := cfg.Validate(); err != nil {
		return err
	}

	processor, cleanup, err := buildProcessor(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Ctrl-C stops dispatch; in-flight pages drain before the report prints.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Processing %s\n", cfg.Root)

	done := make(chan struct{})
	go trackProgress(ctx, processor, done)

	report, err := processor.Run(ctx)
	close(done)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printReport(cmd, report)
	if ctx.Err() != nil {
		cmd.Println("Run interrupted; partial results were saved.")
	}
	return nil
}

// processConfig layers command flags over the base configuration.
func processConfig(cmd *cobra.Command, root string) domain.Config {
	cfg := baseConfig
	cfg.Root = root

	f := cmd.Flags()
	if v, _ := f.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := f.GetInt("workers"); v > 0 {
		cfg.MaxWorkers = v
	}
	if v, _ := f.GetInt("retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v, _ := f.GetInt("timeout"); v > 0 {
		cfg.TimeoutSeconds = v
	}
	if v, _ := f.GetFloat64("rps"); v > 0 {
		cfg.RequestsPerSecond = v
	}
	if v, _ := f.GetBool("force"); v {
		cfg.ForceReprocess = true
	}
	if v, _ := f.GetBool("no-ai"); v {
		cfg.DisableAIClassifier = true
	}
	if v, _ := f.GetInt("max-files"); v > 0 {
		cfg.MaxFiles = v
	}
	if v, _ := f.GetInt("start-from"); v > 0 {
		cfg.StartFrom = v
	}
	if v, _ := f.GetInt("min-count"); v > 0 {
		cfg.MinItemCount = v
	}
	if v, _ := f.GetString("backend"); v != "" {
		cfg.OCR.Backend = domain.OCRBackend(v)
	}
	if v, _ := f.GetString("model"); v != "" {
		cfg.OCR.Model = v
	}
	return cfg
}

// trackProgress renders a progress bar from status snapshots until done
// closes. The bar appears once enumeration has fixed the run's total.
func trackProgress(ctx context.Context, processor driving.BatchProcessor, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var bar *progressbar.ProgressBar
	for {
		select {
		case <-done:
			if bar != nil {
				_ = bar.Finish()
			}
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := processor.Status()
			if status.Total == 0 {
				continue
			}
			if bar == nil {
				bar = progressbar.NewOptions(
					status.Total,
					progressbar.OptionSetDescription("pages"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetRenderBlankState(true),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprint(os.Stderr, "\n")
					}),
				)
			}
			_ = bar.Set(status.Processed)
		}
	}
}

// printReport renders the end-of-run summary.
func printReport(cmd *cobra.Command, report *driving.RunReport) {
	cmd.Println()
	cmd.Println("Run complete")
	cmd.Printf("  Elapsed:   %s\n", report.Elapsed.Round(time.Second))
	cmd.Printf("  Total:     %d\n", report.Total)
	cmd.Printf("  Succeeded: %d\n", report.Succeeded)
	cmd.Printf("  Skipped:   %d\n", report.Skipped)
	cmd.Printf("  Failed:    %d\n", report.Failed)

	if len(report.FailedKeys) > 0 {
		cmd.Println("\nFailed pages:")
		shown := report.FailedKeys
		if len(shown) > maxReportedFailures {
			shown = shown[:maxReportedFailures]
		}
		for _, key := range shown {
			cmd.Printf("  - %s\n", key)
		}
		if extra := len(report.FailedKeys) - maxReportedFailures; extra > 0 {
			cmd.Printf("  ... and %d more\n", extra)
		}
	}

	if len(report.Distribution) > 0 {
		cmd.Println("\nClassified this run:")
		for _, qt := range domain.AllQuestionTypes {
			count, ok := report.Distribution[qt]
			if !ok {
				continue
			}
			pct := float64(count) / float64(report.Succeeded) * 100
			cmd.Printf("  %-40s %4d (%.1f%%)\n", qt.Description(), count, pct)
		}
	}
}
