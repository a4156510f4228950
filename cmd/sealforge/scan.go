package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/scan"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/signal"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan market data sources and print the rendered result",
	Long: `Scan fetches chain stats, yields, protocols, trending coins, the SUI price
and configured news feeds concurrently, and prints the same rendered text the
model sees during a run. Sources that fail are reported and skipped.

With --signals the model is also asked which signals it would publish, as a
dry run of the selection phase; nothing is encrypted or published.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Bool("signals", false, "also preview the signals the model would select")
	scanCmd.Flags().String("topic", "", "steer the signal preview toward a topic")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Scan.Timeout}
	result := scan.ScanAll(cmd.Context(), client, cfg.Scan, os.Stderr)

	fmt.Println(scan.RenderForLLM(result))
	if len(result.SourceErrors) > 0 {
		fmt.Fprintf(os.Stderr, "%d source(s) failed\n", len(result.SourceErrors))
	}

	if preview, _ := cmd.Flags().GetBool("signals"); !preview {
		return nil
	}

	llmClient, err := newLLM(cfg)
	if err != nil {
		return err
	}
	topic, _ := cmd.Flags().GetString("topic")
	selector := signal.New(llmClient, cfg.Selector, os.Stderr)
	signals, usedFallback := selector.Identify(cmd.Context(), scan.RenderForLLM(result), topic, time.Now().UTC())

	fmt.Printf("\n%d signal(s)", len(signals))
	if usedFallback {
		fmt.Print(" (fallback template, model unavailable)")
	}
	fmt.Println(":")
	for i, sig := range signals {
		fmt.Printf("%d. %q [%s/%s] %d%% confidence, %.2f SUI\n",
			i+1, sig.Title, sig.Category, sig.Theme, sig.Confidence, sig.PriceSUI)
		for _, q := range sig.HuntQueries {
			fmt.Printf("   hunt: %s\n", q)
		}
	}
	return nil
}
