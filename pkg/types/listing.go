// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MistPerSUI is the number of MIST in one SUI.
const MistPerSUI = 1_000_000_000

// SUIToMist converts a SUI amount to MIST, rounding to the nearest unit.
func SUIToMist(sui float64) uint64 {
	return uint64(sui*MistPerSUI + 0.5)
}

// MistToSUI converts MIST to SUI.
func MistToSUI(mist uint64) float64 {
	return float64(mist) / MistPerSUI
}

// Listing mirrors the ledger-resident ContentListing record. Listings are
// created with an empty BlobID, which is attached in a second transaction;
// a listing whose BlobID is still empty is in a visible broken state.
type Listing struct {
	ID               string   `json:"id"`
	Creator          string   `json:"creator"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Theme            string   `json:"theme"`
	PriceMist        uint64   `json:"price_mist"`
	BlobID           string   `json:"blob_id"`
	Buyers           []string `json:"buyers"`
	TotalRevenueMist uint64   `json:"total_revenue_mist"`
	Active           bool     `json:"active"`
	CreatedAtMs      int64    `json:"created_at_ms"`
}

// HasBuyer reports whether addr has purchased the listing.
func (l *Listing) HasBuyer(addr string) bool {
	for _, b := range l.Buyers {
		if b == addr {
			return true
		}
	}
	return false
}
