// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/drand/kyber"
	"github.com/drand/kyber/share"
	kyberrand "github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testListingID = "0x1122334455667788990011223344556677889900112233445566778899001122"
	testProgramID = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testMarketID  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func testKeyPair() (kyber.Scalar, kyber.Point) {
	suite := Suite()
	priv := suite.Scalar().Pick(kyberrand.New())
	return priv, suite.Point().Mul(priv, nil)
}

func testEncryptor(t *testing.T, threshold, n int) (*Encryptor, []kyber.Scalar) {
	t.Helper()
	custodians := make([]Custodian, 0, n)
	privs := make([]kyber.Scalar, 0, n)
	for i := 0; i < n; i++ {
		priv, pub := testKeyPair()
		privs = append(privs, priv)
		custodians = append(custodians, Custodian{
			ObjectID:  "0xcc" + strings.Repeat("0", 61) + string(rune('0'+i)),
			URL:       "http://unused",
			PublicKey: pub,
		})
	}
	return &Encryptor{ProgramID: testProgramID, Threshold: threshold, Custodians: custodians}, privs
}

func TestNewIdentifierBindsListingAndVaries(t *testing.T) {
	a, err := NewIdentifier(testListingID)
	require.NoError(t, err)
	b, err := NewIdentifier(testListingID)
	require.NoError(t, err)

	assert.True(t, a.MatchesListing(testListingID))
	assert.Equal(t, testListingID, a.ListingID())
	assert.NotEqual(t, a.Nonce(), b.Nonce(), "nonce must be fresh per encryption")
}

func TestNewIdentifierRejectsBadObjectID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "short", id: "0x1234"},
		{name: "not hex", id: "0xzz" + strings.Repeat("00", 31)},
		{name: "empty", id: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIdentifier(tt.id)
			assert.Error(t, err)
		})
	}
}

func TestMatchesListingRejectsOtherListing(t *testing.T) {
	id, err := NewIdentifier(testListingID)
	require.NoError(t, err)
	assert.False(t, id.MatchesListing(testProgramID))
}

func TestEncryptOpenRoundTrip(t *testing.T) {
	enc, privs := testEncryptor(t, 2, 3)
	plaintext := []byte(`{"version":"1.0","signal":{"title":"Hello SealForge!"}}`)

	env, err := enc.Encrypt(testListingID, plaintext)
	require.NoError(t, err)
	require.Len(t, env.Shares, 3)
	assert.Equal(t, 2, env.Threshold)
	assert.True(t, env.ID.MatchesListing(testListingID))
	assert.NotContains(t, string(env.Ciphertext), "Hello SealForge!")

	// Any two of the three custodians suffice.
	s0, err := UnwrapShare(privs[0], env.Shares[0].Wrapped, env.ID)
	require.NoError(t, err)
	s2, err := UnwrapShare(privs[2], env.Shares[2].Wrapped, env.ID)
	require.NoError(t, err)

	got, err := env.Open([]*share.PriShare{s0, s2})
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenBelowThresholdFails(t *testing.T) {
	enc, privs := testEncryptor(t, 2, 2)
	env, err := enc.Encrypt(testListingID, []byte("sealed"))
	require.NoError(t, err)

	s0, err := UnwrapShare(privs[0], env.Shares[0].Wrapped, env.ID)
	require.NoError(t, err)

	_, err = env.Open([]*share.PriShare{s0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 2")
}

func TestUnwrapShareRejectsWrongIdentifier(t *testing.T) {
	enc, privs := testEncryptor(t, 1, 1)
	env, err := enc.Encrypt(testListingID, []byte("sealed"))
	require.NoError(t, err)

	other, err := NewIdentifier(testListingID)
	require.NoError(t, err)

	_, err = UnwrapShare(privs[0], env.Shares[0].Wrapped, other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bound to identifier")
}

func TestUnwrapShareRejectsWrongKey(t *testing.T) {
	enc, _ := testEncryptor(t, 1, 1)
	env, err := enc.Encrypt(testListingID, []byte("sealed"))
	require.NoError(t, err)

	stranger, _ := testKeyPair()
	_, err = UnwrapShare(stranger, env.Shares[0].Wrapped, env.ID)
	assert.Error(t, err)
}

func TestEncryptRejectsBadThreshold(t *testing.T) {
	enc, _ := testEncryptor(t, 3, 2)
	_, err := enc.Encrypt(testListingID, []byte("sealed"))
	assert.Error(t, err)
}

func TestEnvelopeEncodeParseRoundTrip(t *testing.T) {
	enc, _ := testEncryptor(t, 2, 3)
	env, err := enc.Encrypt(testListingID, []byte("round trip payload"))
	require.NoError(t, err)

	raw, err := env.Encode()
	require.NoError(t, err)

	parsed, err := ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ProgramID, parsed.ProgramID)
	assert.Equal(t, env.Threshold, parsed.Threshold)
	assert.Equal(t, env.ID, parsed.ID)
	assert.Equal(t, env.Shares, parsed.Shares)
	assert.Equal(t, env.Ciphertext, parsed.Ciphertext)
}

func TestParseEnvelopeRejectsGarbage(t *testing.T) {
	enc, _ := testEncryptor(t, 2, 2)
	env, err := enc.Encrypt(testListingID, []byte("payload"))
	require.NoError(t, err)
	raw, err := env.Encode()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("NOPE"), raw[4:]...)},
		{name: "truncated header", data: raw[:10]},
		{name: "truncated ciphertext", data: raw[:len(raw)-5]},
		{name: "trailing bytes", data: append(append([]byte{}, raw...), 0xff)},
		{name: "unknown version", data: func() []byte {
			b := append([]byte{}, raw...)
			b[4] = 99
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestTamperedCiphertextFailsToOpen(t *testing.T) {
	enc, privs := testEncryptor(t, 1, 1)
	env, err := enc.Encrypt(testListingID, []byte("payload"))
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xff
	s0, err := UnwrapShare(privs[0], env.Shares[0].Wrapped, env.ID)
	require.NoError(t, err)
	_, err = env.Open([]*share.PriShare{s0})
	assert.Error(t, err)
}

func TestNewSessionBackdatesCreation(t *testing.T) {
	_, userKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	before := time.Now()
	sess, err := NewSession(userKey, "0xuser", testProgramID, 10)
	require.NoError(t, err)

	created := time.UnixMilli(sess.Cert.CreationTime)
	assert.True(t, created.Before(before), "creation time must be backdated")
	assert.True(t, before.Sub(created) < ClockSkewBuffer+time.Second)
	assert.Equal(t, 10, sess.Cert.TTLMin)
}

func TestVerifyCertificate(t *testing.T) {
	userPub, userKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sess, err := NewSession(userKey, "0xuser", testProgramID, 10)
	require.NoError(t, err)

	require.NoError(t, VerifyCertificate(sess.Cert, userPub, testProgramID, time.Now()))

	t.Run("wrong program", func(t *testing.T) {
		assert.Error(t, VerifyCertificate(sess.Cert, userPub, testMarketID, time.Now()))
	})
	t.Run("wrong user key", func(t *testing.T) {
		otherPub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		assert.Error(t, VerifyCertificate(sess.Cert, otherPub, testProgramID, time.Now()))
	})
	t.Run("expired", func(t *testing.T) {
		later := time.Now().Add(11 * time.Minute)
		err := VerifyCertificate(sess.Cert, userPub, testProgramID, later)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
	t.Run("tampered ttl", func(t *testing.T) {
		cert := sess.Cert
		cert.TTLMin = 10000
		assert.Error(t, VerifyCertificate(cert, userPub, testProgramID, time.Now()))
	})
}

func TestSignAndVerifyRequest(t *testing.T) {
	_, userKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	sess, err := NewSession(userKey, "0xuser", testProgramID, 10)
	require.NoError(t, err)

	encPub, err := sess.EncPublicKey()
	require.NoError(t, err)
	sig := sess.SignRequest("ptb-bytes", encPub)

	require.NoError(t, VerifyRequest(sess.Cert, "ptb-bytes", encPub, sig))
	assert.Error(t, VerifyRequest(sess.Cert, "other-ptb", encPub, sig))
	assert.Error(t, VerifyRequest(sess.Cert, "ptb-bytes", encPub, "not-base64!"))
}

func TestSkeletonRoundTrip(t *testing.T) {
	id, err := NewIdentifier(testListingID)
	require.NoError(t, err)

	encoded, err := ApproveSkeleton(testProgramID, id, testMarketID).Encode()
	require.NoError(t, err)

	skel, gotID, err := ParseSkeleton(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, testProgramID+"::content_marketplace::seal_approve", skel.Target)
	assert.Equal(t, []string{testMarketID}, skel.Arguments)

	_, _, err = ParseSkeleton("%%%")
	assert.Error(t, err)
}
