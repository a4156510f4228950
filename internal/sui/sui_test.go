// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestLoadSigner(t *testing.T) {
	seed := testSeed()

	bare, err := LoadSigner(base64.StdEncoding.EncodeToString(seed))
	require.NoError(t, err)

	flagged, err := LoadSigner(base64.StdEncoding.EncodeToString(append([]byte{0x00}, seed...)))
	require.NoError(t, err)

	assert.Equal(t, bare.Address, flagged.Address)
	assert.True(t, strings.HasPrefix(bare.Address, "0x"))
	assert.Len(t, bare.Address, 2+64)
}

func TestLoadSignerRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "not base64", key: "%%%"},
		{name: "wrong length", key: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "unknown flag", key: base64.StdEncoding.EncodeToString(append([]byte{0x01}, testSeed()...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSigner(tt.key)
			assert.Error(t, err)
		})
	}
}

func TestSignTransactionVerifiesUnderIntent(t *testing.T) {
	signer, err := LoadSigner(base64.StdEncoding.EncodeToString(testSeed()))
	require.NoError(t, err)

	txBytes := []byte("tx-bytes")
	serialized, err := base64.StdEncoding.DecodeString(signer.SignTransaction(txBytes))
	require.NoError(t, err)
	require.Len(t, serialized, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	assert.Equal(t, byte(ed25519Flag), serialized[0])

	digest := blake2b.Sum256(append([]byte{0, 0, 0}, txBytes...))
	sig := serialized[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(serialized[1+ed25519.SignatureSize:])
	assert.True(t, ed25519.Verify(pub, digest[:], sig))
	assert.Equal(t, signer.Address, AddressFromPublicKey(pub))
}

// rpcStub routes JSON-RPC methods to canned handlers.
type rpcStub struct {
	t        *testing.T
	handlers map[string]func(params []json.RawMessage) any
	calls    []string
}

func (s *rpcStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
	s.calls = append(s.calls, req.Method)

	handler, ok := s.handlers[req.Method]
	require.True(s.t, ok, "unexpected rpc method %s", req.Method)
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  handler(req.Params),
	})
}

func testClient(t *testing.T, stub *rpcStub) *Client {
	t.Helper()
	stub.t = t
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	signer, err := LoadSigner(base64.StdEncoding.EncodeToString(testSeed()))
	require.NoError(t, err)
	return &Client{
		RPCURL:        srv.URL,
		HTTP:          srv.Client(),
		Signer:        signer,
		PackageID:     "0xpkg",
		MarketplaceID: "0xmarket",
		GasBudget:     100_000_000,
	}
}

func TestCreateListing(t *testing.T) {
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{
		"unsafe_moveCall": func(params []json.RawMessage) any {
			return map[string]string{"txBytes": base64.StdEncoding.EncodeToString([]byte("built"))}
		},
		"sui_executeTransactionBlock": func(params []json.RawMessage) any {
			return map[string]any{
				"digest":  "Digest123",
				"effects": map[string]any{"status": map[string]any{"status": "success"}},
				"objectChanges": []map[string]string{
					{"type": "mutated", "objectType": "0x2::coin::Coin<0x2::sui::SUI>", "objectId": "0xgas"},
					{"type": "created", "objectType": "0xpkg::content_marketplace::ContentListing", "objectId": "0xlisting"},
					{"type": "created", "objectType": "0xpkg::content_marketplace::ListingCap", "objectId": "0xcap"},
				},
			}
		},
	}}
	client := testClient(t, stub)

	created, err := client.CreateListing(context.Background(), "Title", "Desc", "blue-data", 250_000_000)
	require.NoError(t, err)
	assert.Equal(t, "0xlisting", created.ListingID)
	assert.Equal(t, "0xcap", created.CapID)
	assert.Equal(t, "Digest123", created.Digest)
	assert.Equal(t, []string{"unsafe_moveCall", "sui_executeTransactionBlock"}, stub.calls)
}

func TestMoveCallSurfacesExecutionFailure(t *testing.T) {
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{
		"unsafe_moveCall": func(params []json.RawMessage) any {
			return map[string]string{"txBytes": base64.StdEncoding.EncodeToString([]byte("built"))}
		},
		"sui_executeTransactionBlock": func(params []json.RawMessage) any {
			return map[string]any{
				"digest":  "DigestBad",
				"effects": map[string]any{"status": map[string]any{"status": "failure", "error": "MoveAbort(7)"}},
			}
		},
	}}
	client := testClient(t, stub)

	_, err := client.CreateListing(context.Background(), "Title", "Desc", "blue-data", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MoveAbort(7)")
}

func TestPurchaseSelectsCoveringCoin(t *testing.T) {
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{
		"suix_getCoins": func(params []json.RawMessage) any {
			return map[string]any{"data": []map[string]string{
				{"coinObjectId": "0xsmall", "balance": "100"},
				{"coinObjectId": "0xbig", "balance": "1000000000"},
			}}
		},
		"unsafe_moveCall": func(params []json.RawMessage) any {
			var decoded []any
			for _, p := range params {
				var v any
				json.Unmarshal(p, &v)
				decoded = append(decoded, v)
			}
			args := decoded[5].([]any)
			assert.Contains(t, args, "0xbig")
			return map[string]string{"txBytes": base64.StdEncoding.EncodeToString([]byte("built"))}
		},
		"sui_executeTransactionBlock": func(params []json.RawMessage) any {
			return map[string]any{
				"digest":  "DigestBuy",
				"effects": map[string]any{"status": map[string]any{"status": "success"}},
			}
		},
	}}
	client := testClient(t, stub)

	digest, err := client.Purchase(context.Background(), "0xlisting", 250_000_000)
	require.NoError(t, err)
	assert.Equal(t, "DigestBuy", digest)
}

func TestPurchaseFailsWithoutCoveringCoin(t *testing.T) {
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{
		"suix_getCoins": func(params []json.RawMessage) any {
			return map[string]any{"data": []map[string]string{
				{"coinObjectId": "0xsmall", "balance": "100"},
			}}
		},
	}}
	client := testClient(t, stub)

	_, err := client.Purchase(context.Background(), "0xlisting", 250_000_000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no coin")
}

func TestGetListingParsesFields(t *testing.T) {
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{
		"sui_getObject": func(params []json.RawMessage) any {
			return map[string]any{"data": map[string]any{
				"objectId": "0xlisting",
				"content": map[string]any{
					"fields": map[string]any{
						"creator":        "0xcreator",
						"title":          "Sui Yield Rotation",
						"description":    "Capital is rotating.",
						"theme":          "gold-alpha",
						"price":          "250000000",
						"walrus_blob_id": []int{66, 108, 111, 98},
						"buyers":         []string{"0xbuyer1"},
						"total_revenue":  "250000000",
						"active":         true,
						"created_at":     "1756400000000",
					},
				},
			}}
		},
	}}
	client := testClient(t, stub)

	listing, err := client.GetListing(context.Background(), "0xlisting")
	require.NoError(t, err)
	assert.Equal(t, "0xlisting", listing.ID)
	assert.Equal(t, "Sui Yield Rotation", listing.Title)
	assert.Equal(t, uint64(250_000_000), listing.PriceMist)
	assert.Equal(t, "Blob", listing.BlobID)
	assert.True(t, listing.HasBuyer("0xbuyer1"))
	assert.False(t, listing.HasBuyer("0xnobody"))
	assert.Equal(t, int64(1756400000000), listing.CreatedAtMs)
	assert.True(t, listing.Active)
}
