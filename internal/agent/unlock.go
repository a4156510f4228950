// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/sui"
	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// Unlocker is the consumer side: download a listing's blob, prove
// entitlement to the custodians with a short-lived session, and decrypt.
type Unlocker struct {
	Ledger        sui.Ledger
	Blobs         BlobStore
	Decryptor     *seal.Decryptor
	UserKey       ed25519.PrivateKey
	UserAddress   string
	ProgramID     string
	MarketplaceID string
	SessionTTLMin int
}

// Unlock retrieves and decrypts the payload behind a listing. Failures are
// typed by step so the CLI can tell a missing purchase from a storage
// outage.
func (u *Unlocker) Unlock(ctx context.Context, listingID string) (*types.IntelligencePayload, error) {
	listing, err := u.Ledger.GetListing(ctx, listingID)
	if err != nil {
		return nil, &seal.DecryptError{Step: seal.StepDownload, Err: err}
	}
	if listing.BlobID == "" {
		return nil, &seal.DecryptError{
			Step: seal.StepDownload,
			Err:  fmt.Errorf("listing %s has no blob attached yet", listingID),
		}
	}

	raw, err := u.Blobs.Get(ctx, listing.BlobID)
	if err != nil {
		return nil, &seal.DecryptError{Step: seal.StepDownload, Err: err}
	}

	env, err := seal.ParseEnvelope(raw)
	if err != nil {
		return nil, &seal.DecryptError{Step: seal.StepParse, Err: err}
	}

	ttl := u.SessionTTLMin
	if ttl <= 0 {
		ttl = 10
	}
	sess, err := seal.NewSession(u.UserKey, u.UserAddress, u.ProgramID, ttl)
	if err != nil {
		return nil, &seal.DecryptError{Step: seal.StepCredential, Err: err}
	}

	plaintext, err := u.Decryptor.Decrypt(ctx, sess, env, listingID, u.MarketplaceID)
	if err != nil {
		return nil, err
	}

	var payload types.IntelligencePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, &seal.DecryptError{Step: seal.StepParse, Err: fmt.Errorf("decoding payload: %w", err)}
	}
	return &payload, nil
}
