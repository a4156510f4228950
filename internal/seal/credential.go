// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/drand/kyber"
	kyberrand "github.com/drand/kyber/util/random"
)

// ClockSkewBuffer backdates session creation so a custodian with a slightly
// slower clock does not reject a credential as issued in the future.
const ClockSkewBuffer = 5 * time.Second

// Certificate is the user's signed delegation to a short-lived session key.
// Custodians verify the user signature over the challenge and then trust
// request signatures from the embedded session verification key until the
// TTL runs out.
type Certificate struct {
	User         string `json:"user"`
	SessionVK    string `json:"session_vk"`
	CreationTime int64  `json:"creation_time"`
	TTLMin       int    `json:"ttl_min"`
	Signature    string `json:"signature"`
}

// Session is a live consumer session: the ephemeral ed25519 key that signs
// fetch_key requests and the ephemeral kyber key custodians re-wrap shares
// to.
type Session struct {
	Cert Certificate

	signKey ed25519.PrivateKey

	encPriv kyber.Scalar
	encPub  kyber.Point
}

// challenge builds the byte string the user key signs. Everything a
// custodian needs to re-derive it is carried in the certificate.
func challenge(user, programID, sessionVK string, creationMs int64, ttlMin int) []byte {
	return []byte(fmt.Sprintf(
		"sealforge-session-v1\nuser=%s\nprogram=%s\nsession_vk=%s\ncreated=%d\nttl_min=%d",
		user, programID, sessionVK, creationMs, ttlMin,
	))
}

// NewSession mints an ephemeral session key pair and has the user key sign
// a delegation certificate for it, valid for ttlMin minutes against the
// given marketplace package.
func NewSession(userKey ed25519.PrivateKey, userAddress, programID string, ttlMin int) (*Session, error) {
	if ttlMin < 1 {
		return nil, fmt.Errorf("session ttl must be at least one minute")
	}

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	sessionVK := hex.EncodeToString(pub)

	suite := Suite()
	encPriv := suite.Scalar().Pick(kyberrand.New())
	encPub := suite.Point().Mul(encPriv, nil)

	created := time.Now().Add(-ClockSkewBuffer).UnixMilli()
	sig := ed25519.Sign(userKey, challenge(userAddress, programID, sessionVK, created, ttlMin))

	return &Session{
		Cert: Certificate{
			User:         userAddress,
			SessionVK:    sessionVK,
			CreationTime: created,
			TTLMin:       ttlMin,
			Signature:    base64.StdEncoding.EncodeToString(sig),
		},
		signKey: priv,
		encPriv: encPriv,
		encPub:  encPub,
	}, nil
}

// Expired reports whether the certificate's TTL has passed at now.
func (c Certificate) Expired(now time.Time) bool {
	deadline := time.UnixMilli(c.CreationTime).Add(time.Duration(c.TTLMin) * time.Minute)
	return now.After(deadline)
}

// VerifyCertificate checks the user signature over the certificate challenge
// and that the certificate is live. userPub is the user's ed25519 public
// key; programID must match the package the certificate was minted for.
func VerifyCertificate(c Certificate, userPub ed25519.PublicKey, programID string, now time.Time) error {
	if c.Expired(now) {
		return fmt.Errorf("certificate expired")
	}
	if time.UnixMilli(c.CreationTime).After(now.Add(ClockSkewBuffer)) {
		return fmt.Errorf("certificate issued in the future")
	}
	sig, err := base64.StdEncoding.DecodeString(c.Signature)
	if err != nil {
		return fmt.Errorf("decoding certificate signature: %w", err)
	}
	msg := challenge(c.User, programID, c.SessionVK, c.CreationTime, c.TTLMin)
	if !ed25519.Verify(userPub, msg, sig) {
		return fmt.Errorf("certificate signature does not verify")
	}
	return nil
}

// EncPublicKey returns the session's share-wrapping public key.
func (s *Session) EncPublicKey() (string, error) {
	b, err := s.encPub.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("marshaling session enc key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SignRequest signs the hash of the serialized call skeleton and the
// session enc key, tying both to the certificate's session key.
func (s *Session) SignRequest(ptb string, encPub string) string {
	h := sha256.Sum256([]byte(ptb + encPub))
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.signKey, h[:]))
}

// VerifyRequest checks a request signature against the certificate's
// session verification key.
func VerifyRequest(c Certificate, ptb, encPub, signature string) error {
	vk, err := decodeHex(c.SessionVK)
	if err != nil || len(vk) != ed25519.PublicKeySize {
		return fmt.Errorf("certificate carries a malformed session key")
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decoding request signature: %w", err)
	}
	h := sha256.Sum256([]byte(ptb + encPub))
	if !ed25519.Verify(ed25519.PublicKey(vk), h[:], sig) {
		return fmt.Errorf("request signature does not verify")
	}
	return nil
}
