package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <listing-id>",
	Short: "Check a listing's sealed blob without decrypting it",
	Long: `Verify downloads the blob attached to a listing, parses the envelope, and
checks that the encryption identifier is bound to the listing. It needs no
purchase and touches no custodian; anyone can audit a published listing.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	ledger := newLedger(cfg, deployed, signer)
	listing, err := ledger.GetListing(cmd.Context(), listingID)
	if err != nil {
		return err
	}
	if listing.BlobID == "" {
		return fmt.Errorf("listing %s has no blob attached", listingID)
	}

	raw, err := blobs.Get(cmd.Context(), listing.BlobID)
	if err != nil {
		return err
	}
	env, err := seal.ParseEnvelope(raw)
	if err != nil {
		return fmt.Errorf("blob %s is not a valid envelope: %w", listing.BlobID, err)
	}
	if !env.ID.MatchesListing(listingID) {
		return fmt.Errorf("envelope is bound to listing %s, not %s", env.ID.ListingID(), listingID)
	}

	fmt.Printf("Listing:    %q (%.2f SUI, %d buyers)\n", listing.Title, types.MistToSUI(listing.PriceMist), len(listing.Buyers))
	fmt.Printf("Blob:       %s (%d bytes)\n", listing.BlobID, len(raw))
	fmt.Printf("Sealed:     %d-of-%d custodians, identifier %s\n", env.Threshold, len(env.Shares), env.ID.Hex())
	for _, s := range env.Shares {
		fmt.Printf("Custodian:  %s (share %d)\n", s.ObjectID, s.Index)
	}
	fmt.Println("OK: envelope parses and is bound to the listing")
	return nil
}
