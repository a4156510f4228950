package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/agent"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <listing-id>",
	Short: "Download, prove entitlement and decrypt a listing's payload",
	Long: `Unlock fetches the listing's sealed blob, mints a short-lived session
credential signed by the buyer's key, collects a quorum of key shares from
the custodians, and prints the decrypted intelligence payload as JSON.

Custodians release shares only to addresses recorded as buyers; run
purchase first.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnlock,
}

func init() {
	unlockCmd.Flags().String("output", "", "write the payload to a file instead of stdout")

	rootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	listingID := args[0]

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
	blobs, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	unlocker := &agent.Unlocker{
		Ledger:        newLedger(cfg, deployed, signer),
		Blobs:         blobs,
		Decryptor:     newDecryptor(cfg),
		UserKey:       signer.Key(),
		UserAddress:   signer.Address,
		ProgramID:     deployed.PackageID,
		MarketplaceID: deployed.MarketplaceID,
		SessionTTLMin: cfg.Seal.SessionTTLMin,
	}

	payload, err := unlocker.Unlock(cmd.Context(), listingID)
	if err != nil {
		var derr *seal.DecryptError
		if errors.As(err, &derr) {
			return fmt.Errorf("unlock failed at %s: %w", derr.Step, derr.Err)
		}
		return err
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote payload to %s\n", path)
		return nil
	}
	fmt.Println(string(out))
	return nil
}
