package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/activity"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/agent"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full publish pipeline pass",
	Long: `Run scans the data sources, asks the model for the most valuable signals,
hunts supporting evidence, reasons each signal into an intelligence payload,
and publishes every payload as a sealed listing: create on chain, encrypt
bound to the listing id, upload to Walrus, attach the blob id.

A failing signal is logged and skipped; the run continues with the rest.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topic", "", "steer signal selection toward a topic")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	deployed, err := loadDeployed(cmd)
	if err != nil {
		return err
	}

	signer, err := newSigner()
	if err != nil {
		return err
	}
	llmClient, err := newLLM(cfg)
	if err != nil {
		return err
	}
	blobs, err := newBlobStore(cfg)
	if err != nil {
		return err
	}
	encryptor, err := newEncryptor(cfg, deployed)
	if err != nil {
		return err
	}

	store, err := activity.NewStore(cfg.Activity.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("SealForge agent %s publishing as %s\n", version, signer.Address)

	a := &agent.Agent{
		Cfg:       cfg,
		HTTP:      &http.Client{Timeout: cfg.Scan.Timeout},
		LLM:       llmClient,
		Ledger:    newLedger(cfg, deployed, signer),
		Blobs:     blobs,
		Encryptor: encryptor,
		Log:       activity.NewLog(os.Stdout),
		Store:     store,
		Progress:  os.Stdout,
	}

	summary, err := a.Run(cmd.Context(), topic)
	if err != nil {
		return err
	}

	fmt.Printf("\nRun complete: %d signals, %d published, %d failed (fallback=%t)\n",
		summary.SignalsFound, len(summary.Published), summary.Failed, summary.UsedFallback)
	for _, item := range summary.Published {
		fmt.Printf("  %s  %.2f SUI  %q  blob %s\n",
			item.ListingID, item.Signal.PriceSUI, item.Signal.Title, item.BlobID)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d signal(s) failed to publish", summary.Failed)
	}
	return nil
}
