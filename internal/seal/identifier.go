// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seal implements the threshold envelope protocol: per-listing
// encryption identifiers, local envelope encryption, session credentials,
// and quorum decryption against remote key custodians.
package seal

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// ListingIDLen is the fixed width of an on-chain object id.
	ListingIDLen = 32

	// NonceLen is the random suffix width. The nonce only makes identifiers
	// unique across re-encryptions of the same listing; the admission
	// predicate is evaluated against the listing prefix alone.
	NonceLen = 5

	// IdentifierLen is the total identifier width.
	IdentifierLen = ListingIDLen + NonceLen
)

// Identifier is the cryptographic access-key name for one envelope:
// listing object id followed by a random nonce. The listing prefix of every
// valid identifier must equal a real on-chain listing id; both the
// decryptor and the custodians re-derive and check this.
type Identifier [IdentifierLen]byte

// NewIdentifier builds an identifier for listingID with a fresh random
// nonce. Every encryption must use a fresh identifier; callers get that by
// construction by calling NewIdentifier per encryption.
func NewIdentifier(listingID string) (Identifier, error) {
	var id Identifier

	raw, err := decodeObjectID(listingID)
	if err != nil {
		return id, err
	}
	copy(id[:ListingIDLen], raw)

	if _, err := rand.Read(id[ListingIDLen:]); err != nil {
		return id, fmt.Errorf("drawing nonce: %w", err)
	}
	return id, nil
}

// ParseIdentifier validates and copies a raw identifier.
func ParseIdentifier(b []byte) (Identifier, error) {
	var id Identifier
	if len(b) != IdentifierLen {
		return id, fmt.Errorf("identifier must be %d bytes, got %d", IdentifierLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ListingID returns the 0x-prefixed listing object id embedded in the
// identifier prefix.
func (id Identifier) ListingID() string {
	return "0x" + hex.EncodeToString(id[:ListingIDLen])
}

// Nonce returns the random suffix.
func (id Identifier) Nonce() []byte {
	return id[ListingIDLen:]
}

// Hex returns the full identifier as lowercase hex.
func (id Identifier) Hex() string {
	return hex.EncodeToString(id[:])
}

// MatchesListing reports whether the identifier's prefix equals listingID.
func (id Identifier) MatchesListing(listingID string) bool {
	raw, err := decodeObjectID(listingID)
	if err != nil {
		return false
	}
	return bytes.Equal(id[:ListingIDLen], raw)
}

// decodeObjectID parses a 0x-prefixed (or bare) 32-byte hex object id.
func decodeObjectID(s string) ([]byte, error) {
	raw, err := decodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("object id %q is not hex: %w", s, err)
	}
	if len(raw) != ListingIDLen {
		return nil, fmt.Errorf("object id %q must be %d bytes, got %d", s, ListingIDLen, len(raw))
	}
	return raw, nil
}

// decodeHex parses 0x-prefixed or bare lowercase/uppercase hex.
func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
}
