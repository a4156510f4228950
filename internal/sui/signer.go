// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sui is a thin JSON-RPC adapter for the marketplace contract:
// transaction building via the node, local intent signing, and typed
// reads of listing objects.
package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ed25519Flag is the scheme byte Sui prepends to ed25519 public keys in
// addresses and serialized signatures.
const ed25519Flag = 0x00

// Signer holds the agent's ed25519 key and derived address.
type Signer struct {
	key     ed25519.PrivateKey
	Address string
}

// LoadSigner parses a base64 private key as wallet exports produce it:
// either a bare 32-byte seed or a 33-byte flag-prefixed seed.
func LoadSigner(encoded string) (*Signer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
	case ed25519.SeedSize + 1:
		if raw[0] != ed25519Flag {
			return nil, fmt.Errorf("unsupported key scheme flag %#x", raw[0])
		}
		raw = raw[1:]
	default:
		return nil, fmt.Errorf("private key must be a 32-byte seed, got %d bytes", len(raw))
	}

	key := ed25519.NewKeyFromSeed(raw)
	return &Signer{
		key:     key,
		Address: AddressFromPublicKey(key.Public().(ed25519.PublicKey)),
	}, nil
}

// AddressFromPublicKey derives the 0x address: blake2b-256 over the scheme
// flag and the raw public key bytes.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{ed25519Flag})
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// PublicKey returns the signer's ed25519 public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Key returns the underlying private key, for signing session credentials
// with the same identity that signs transactions.
func (s *Signer) Key() ed25519.PrivateKey {
	return s.key
}

// SignTransaction signs node-built transaction bytes with the personal
// transaction intent and returns the serialized signature the execute call
// expects: base64 over flag, signature, public key.
func (s *Signer) SignTransaction(txBytes []byte) string {
	// Intent scope TransactionData, version 0, app id Sui.
	msg := append([]byte{0, 0, 0}, txBytes...)
	digest := blake2b.Sum256(msg)
	sig := ed25519.Sign(s.key, digest[:])

	serialized := make([]byte, 0, 1+len(sig)+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, s.PublicKey()...)
	return base64.StdEncoding.EncodeToString(serialized)
}
