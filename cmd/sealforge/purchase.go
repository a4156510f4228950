package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase <listing-id>",
	Short: "Buy a listing",
	Long: `Purchase pays a listing's price from the signer's SUI balance, recording
the buyer on chain. A recorded purchase is what the key custodians check
when the buyer later unlocks the payload.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurchase,
}

func init() {
	rootCmd.AddCommand(purchaseCmd)
}

func runPurchase(cmd *cobra.Command, args []string) error {
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
	ledger := newLedger(cfg, deployed, signer)

	listing, err := ledger.GetListing(cmd.Context(), listingID)
	if err != nil {
		return err
	}
	if listing.HasBuyer(signer.Address) {
		fmt.Printf("Already purchased %q\n", listing.Title)
		return nil
	}

	fmt.Printf("Purchasing %q for %.2f SUI as %s\n", listing.Title, types.MistToSUI(listing.PriceMist), signer.Address)
	digest, err := ledger.Purchase(cmd.Context(), listingID, listing.PriceMist)
	if err != nil {
		return err
	}
	fmt.Printf("Purchased (tx %s)\n", digest)
	return nil
}
