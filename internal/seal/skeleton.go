// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// CallSkeleton describes the seal_approve Move call a custodian dry-runs to
// decide entitlement. It is what travels in the ptb field of a fetch_key
// request, base64 over canonical JSON.
type CallSkeleton struct {
	Target        string   `json:"target"`
	IdentifierHex string   `json:"identifier"`
	Arguments     []string `json:"arguments"`
}

// ApproveSkeleton builds the skeleton for one identifier against the
// marketplace's seal_approve entry point.
func ApproveSkeleton(programID string, id Identifier, marketplaceID string) CallSkeleton {
	return CallSkeleton{
		Target:        programID + "::content_marketplace::seal_approve",
		IdentifierHex: id.Hex(),
		Arguments:     []string{marketplaceID},
	}
}

// Encode serializes the skeleton for transport.
func (s CallSkeleton) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding call skeleton: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// ParseSkeleton reverses Encode and validates the embedded identifier.
func ParseSkeleton(encoded string) (CallSkeleton, Identifier, error) {
	var s CallSkeleton
	var id Identifier

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return s, id, fmt.Errorf("decoding call skeleton: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, id, fmt.Errorf("decoding call skeleton: %w", err)
	}
	idBytes, err := decodeHex(s.IdentifierHex)
	if err != nil {
		return s, id, fmt.Errorf("call skeleton identifier is not hex: %w", err)
	}
	id, err = ParseIdentifier(idBytes)
	if err != nil {
		return s, id, err
	}
	return s, id, nil
}
