// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/drand/kyber"
	"github.com/drand/kyber/encrypt/ecies"
	"github.com/drand/kyber/group/edwards25519"
	"github.com/drand/kyber/share"
	kyberrand "github.com/drand/kyber/util/random"
)

// Suite is the group every key, share and wrapping in the protocol lives on.
func Suite() *edwards25519.SuiteEd25519 {
	return edwards25519.NewBlakeSHA256Ed25519()
}

// shareMessage is the plaintext a custodian share is wrapped around:
// the share index, the 32-byte share scalar, and the full identifier so a
// custodian can refuse to release a share against the wrong listing.
const shareMessageLen = 2 + 32 + IdentifierLen

func encodeShareMessage(index uint16, scalar kyber.Scalar, id Identifier) ([]byte, error) {
	sb, err := scalar.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling share scalar: %w", err)
	}
	if len(sb) != 32 {
		return nil, fmt.Errorf("unexpected scalar length %d", len(sb))
	}
	msg := make([]byte, 0, shareMessageLen)
	msg = binary.BigEndian.AppendUint16(msg, index)
	msg = append(msg, sb...)
	msg = append(msg, id[:]...)
	return msg, nil
}

func decodeShareMessage(msg []byte) (uint16, kyber.Scalar, Identifier, error) {
	var id Identifier
	if len(msg) != shareMessageLen {
		return 0, nil, id, fmt.Errorf("share message has %d bytes, want %d", len(msg), shareMessageLen)
	}
	index := binary.BigEndian.Uint16(msg[:2])
	scalar := Suite().Scalar()
	if err := scalar.UnmarshalBinary(msg[2:34]); err != nil {
		return 0, nil, id, fmt.Errorf("unmarshaling share scalar: %w", err)
	}
	copy(id[:], msg[34:])
	return index, scalar, id, nil
}

// WrapShare encrypts one Shamir share and the identifier it is bound to under
// a custodian's public key.
func WrapShare(pub kyber.Point, index uint16, scalar kyber.Scalar, id Identifier) ([]byte, error) {
	msg, err := encodeShareMessage(index, scalar, id)
	if err != nil {
		return nil, err
	}
	wrapped, err := ecies.Encrypt(Suite(), pub, msg, sha256.New)
	if err != nil {
		return nil, fmt.Errorf("wrapping share %d: %w", index, err)
	}
	return wrapped, nil
}

// UnwrapShare reverses WrapShare with the custodian's private key and checks
// the identifier binding.
func UnwrapShare(priv kyber.Scalar, wrapped []byte, want Identifier) (*share.PriShare, error) {
	msg, err := ecies.Decrypt(Suite(), priv, wrapped, sha256.New)
	if err != nil {
		return nil, fmt.Errorf("unwrapping share: %w", err)
	}
	index, scalar, id, err := decodeShareMessage(msg)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(id[:], want[:]) {
		return nil, fmt.Errorf("share is bound to identifier %s, not %s", id.Hex(), want.Hex())
	}
	return &share.PriShare{I: int(index), V: scalar}, nil
}

// deriveDEK turns the shared secret scalar into the AES-256 data key. The
// identifier is mixed in so recovering the scalar for one listing never
// yields the key for another.
func deriveDEK(secret kyber.Scalar, id Identifier) ([]byte, error) {
	sb, err := secret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling secret: %w", err)
	}
	h := sha256.New()
	h.Write(sb)
	h.Write(id[:])
	return h.Sum(nil), nil
}

func sealPayload(dek []byte, id Identifier, plaintext []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, nil, fmt.Errorf("building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("building cipher: %w", err)
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("drawing cipher nonce: %w", err)
	}
	ciphertext = gcm.Seal(nil, nonce, plaintext, id[:])
	return nonce, ciphertext, nil
}

func openPayload(dek []byte, id Identifier, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, id[:])
	if err != nil {
		return nil, fmt.Errorf("opening ciphertext: %w", err)
	}
	return plaintext, nil
}

// Custodian is one key custodian as the encryptor sees it: an on-chain
// object id, a fetch_key endpoint and a share-wrapping public key.
type Custodian struct {
	ObjectID  string
	URL       string
	PublicKey kyber.Point
}

// ParsePublicKey decodes a hex-encoded custodian public key point.
func ParsePublicKey(hexKey string) (kyber.Point, error) {
	raw, err := decodeHex(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing custodian key: %w", err)
	}
	p := Suite().Point()
	if err := p.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("parsing custodian key: %w", err)
	}
	return p, nil
}

// Encryptor seals payloads for a fixed custodian set and threshold under a
// marketplace package id.
type Encryptor struct {
	ProgramID  string
	Threshold  int
	Custodians []Custodian
}

// Encrypt seals plaintext bound to the given listing: it draws a fresh
// secret, splits it t-of-n across the custodians, and packages ciphertext
// plus wrapped shares into an envelope.
func (e *Encryptor) Encrypt(listingID string, plaintext []byte) (*Envelope, error) {
	if e.Threshold < 1 || e.Threshold > len(e.Custodians) {
		return nil, fmt.Errorf("threshold %d with %d custodians", e.Threshold, len(e.Custodians))
	}

	id, err := NewIdentifier(listingID)
	if err != nil {
		return nil, err
	}

	suite := Suite()
	secret := suite.Scalar().Pick(kyberrand.New())

	poly := share.NewPriPoly(suite, e.Threshold, secret, kyberrand.New())
	shares := poly.Shares(len(e.Custodians))

	entries := make([]CustodianShare, 0, len(e.Custodians))
	for i, c := range e.Custodians {
		wrapped, err := WrapShare(c.PublicKey, uint16(shares[i].I), shares[i].V, id)
		if err != nil {
			return nil, fmt.Errorf("sealing for custodian %s: %w", c.ObjectID, err)
		}
		entries = append(entries, CustodianShare{
			ObjectID: c.ObjectID,
			Index:    uint16(shares[i].I),
			Wrapped:  wrapped,
		})
	}

	dek, err := deriveDEK(secret, id)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext, err := sealPayload(dek, id, plaintext)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Version:    envelopeVersion,
		ProgramID:  e.ProgramID,
		Threshold:  e.Threshold,
		Shares:     entries,
		ID:         id,
		gcmNonce:   nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Open reconstructs the shared secret from at least threshold shares and
// opens the ciphertext.
func (env *Envelope) Open(shares []*share.PriShare) ([]byte, error) {
	if len(shares) < env.Threshold {
		return nil, fmt.Errorf("%d shares, need %d", len(shares), env.Threshold)
	}
	secret, err := share.RecoverSecret(Suite(), shares, env.Threshold, len(shares))
	if err != nil {
		return nil, fmt.Errorf("recovering secret: %w", err)
	}
	dek, err := deriveDEK(secret, env.ID)
	if err != nil {
		return nil, err
	}
	return openPayload(dek, env.ID, env.gcmNonce, env.Ciphertext)
}
