package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/activity"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "Inspect and manage marketplace listings",
}

var listingCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a listing on the marketplace without publishing a payload",
	Long: `Create mints an empty listing: title, description, theme and price go on
chain, and the blob id stays unset until a payload is attached. Useful for
staging a listing before a manual upload.`,
	RunE: runListingCreate,
}

var listingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the listings this agent has published",
	RunE:  runListingList,
}

func init() {
	listingCreateCmd.Flags().String("title", "", "listing title (required)")
	listingCreateCmd.Flags().String("description", "", "listing description (required)")
	listingCreateCmd.Flags().String("theme", "blue-data", "visual theme")
	listingCreateCmd.Flags().Float64("price", 0.25, "price in SUI")

	listingCmd.AddCommand(listingCreateCmd)
	listingCmd.AddCommand(listingListCmd)
	rootCmd.AddCommand(listingCmd)
}

func runListingCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	theme, _ := cmd.Flags().GetString("theme")
	price, _ := cmd.Flags().GetFloat64("price")
	if title == "" || description == "" {
		return fmt.Errorf("both --title and --description are required")
	}

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
	created, err := ledger.CreateListing(cmd.Context(), title, description, string(types.ParseTheme(theme)), types.SUIToMist(price))
	if err != nil {
		return err
	}

	store, err := activity.NewStore(cfg.Activity.DBPath)
	if err == nil {
		defer store.Close()
		_ = store.RecordListing(activity.PublishedListing{
			ListingID:   created.ListingID,
			CapID:       created.CapID,
			Title:       title,
			Theme:       theme,
			PriceMist:   types.SUIToMist(price),
			PublishedAt: time.Now(),
		})
	}

	fmt.Printf("Created listing %s (cap %s, tx %s)\n", created.ListingID, created.CapID, created.Digest)
	return nil
}

func runListingList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := activity.NewStore(cfg.Activity.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	listings, err := store.Listings()
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		fmt.Println("No listings published yet.")
		return nil
	}
	for _, l := range listings {
		blob := l.BlobID
		if blob == "" {
			blob = "(no blob attached)"
		}
		fmt.Printf("%s  %s  %.2f SUI  %q  %s\n",
			l.PublishedAt.Format("2006-01-02 15:04"), l.ListingID, types.MistToSUI(l.PriceMist), l.Title, blob)
	}
	return nil
}
