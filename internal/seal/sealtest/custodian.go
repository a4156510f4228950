// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sealtest provides an in-process key custodian for tests. It
// speaks the real fetch_key protocol end to end so decryptor and agent
// tests exercise the same code paths a deployed key server would.
package sealtest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/drand/kyber"
	kyberrand "github.com/drand/kyber/util/random"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/internal/seal"
)

// Custodian is a stub key server with a real key pair. Approve decides
// entitlement per request; when nil every verified request is granted.
type Custodian struct {
	ObjectID  string
	ProgramID string
	Pub       kyber.Point

	// UserKeys maps user addresses to their ed25519 public keys, standing
	// in for on-chain address recovery.
	UserKeys map[string]ed25519.PublicKey

	// Approve is the entitlement predicate over the certificate user and
	// the listing the identifier is bound to.
	Approve func(user, listingID string) bool

	priv kyber.Scalar
}

// NewCustodian mints a custodian key pair.
func NewCustodian(objectID, programID string) *Custodian {
	suite := seal.Suite()
	priv := suite.Scalar().Pick(kyberrand.New())
	return &Custodian{
		ObjectID:  objectID,
		ProgramID: programID,
		Pub:       suite.Point().Mul(priv, nil),
		UserKeys:  map[string]ed25519.PublicKey{},
		priv:      priv,
	}
}

// PublicKeyHex returns the custodian public key as the agent config
// carries it.
func (c *Custodian) PublicKeyHex() string {
	b, err := c.Pub.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

type fetchKeyRequest struct {
	PTB                string           `json:"ptb"`
	EncKey             string           `json:"enc_key"`
	EncVerificationKey string           `json:"enc_verification_key"`
	RequestSignature   string           `json:"request_signature"`
	Certificate        seal.Certificate `json:"certificate"`
	EncryptedShare     string           `json:"encrypted_share"`
	ShareIndex         uint16           `json:"share_index"`
}

type fetchKeyResponse struct {
	EncryptedShare string `json:"encrypted_share,omitempty"`
	Error          string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(fetchKeyResponse{Error: msg})
}

// ServeHTTP implements POST /v1/fetch_key.
func (c *Custodian) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/fetch_key" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req fetchKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	userPub, ok := c.UserKeys[req.Certificate.User]
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	if err := seal.VerifyCertificate(req.Certificate, userPub, c.ProgramID, time.Now()); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := seal.VerifyRequest(req.Certificate, req.PTB, req.EncKey, req.RequestSignature); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	_, id, err := seal.ParseSkeleton(req.PTB)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if c.Approve != nil && !c.Approve(req.Certificate.User, id.ListingID()) {
		writeError(w, http.StatusForbidden, "no access: user holds no entitlement for listing")
		return
	}

	wrapped, err := base64.StdEncoding.DecodeString(req.EncryptedShare)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed encrypted share")
		return
	}
	ps, err := seal.UnwrapShare(c.priv, wrapped, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionPub, err := seal.ParsePublicKey(req.EncKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rewrapped, err := seal.WrapShare(sessionPub, uint16(ps.I), ps.V, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fetchKeyResponse{
		EncryptedShare: base64.StdEncoding.EncodeToString(rewrapped),
	})
}
