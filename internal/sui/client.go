// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// clockObjectID is the shared on-chain clock every timestamped entry point
// takes.
const clockObjectID = "0x6"

const suiCoinType = "0x2::sui::SUI"

// CreatedListing holds the object ids minted by a create_listing call. The
// cap is the creator-only capability later needed to attach the blob id.
type CreatedListing struct {
	ListingID string
	CapID     string
	Digest    string
}

// Ledger is the chain surface the agent depends on.
type Ledger interface {
	CreateListing(ctx context.Context, title, description, theme string, priceMist uint64) (CreatedListing, error)
	UpdateBlobID(ctx context.Context, listingID, capID, blobID string) error
	Purchase(ctx context.Context, listingID string, priceMist uint64) (string, error)
	GetListing(ctx context.Context, listingID string) (*types.Listing, error)
}

// Client talks to a Sui fullnode over JSON-RPC. Transactions are built by
// the node with unsafe_moveCall and signed locally.
type Client struct {
	RPCURL        string
	HTTP          *http.Client
	Signer        *Signer
	PackageID     string
	MarketplaceID string
	GasBudget     uint64
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RPCURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: node returned status %d", method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("calling %s: %w", method, envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

type objectChange struct {
	Type       string `json:"type"`
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
}

type txResult struct {
	Digest  string `json:"digest"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
	ObjectChanges []objectChange `json:"objectChanges"`
}

// moveCall builds, signs and executes one Move call against the marketplace
// package, waiting for local execution.
func (c *Client) moveCall(ctx context.Context, function string, args []any) (*txResult, error) {
	var built struct {
		TxBytes string `json:"txBytes"`
	}
	err := c.call(ctx, "unsafe_moveCall", []any{
		c.Signer.Address,
		c.PackageID,
		"content_marketplace",
		function,
		[]any{},
		args,
		nil,
		strconv.FormatUint(c.GasBudget, 10),
	}, &built)
	if err != nil {
		return nil, err
	}

	txBytes, err := base64.StdEncoding.DecodeString(built.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding transaction bytes: %w", err)
	}
	signature := c.Signer.SignTransaction(txBytes)

	var result txResult
	err = c.call(ctx, "sui_executeTransactionBlock", []any{
		built.TxBytes,
		[]string{signature},
		map[string]bool{"showEffects": true, "showObjectChanges": true},
		"WaitForLocalExecution",
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Effects.Status.Status != "success" {
		return nil, fmt.Errorf("transaction %s failed: %s", result.Digest, result.Effects.Status.Error)
	}
	return &result, nil
}

func (r *txResult) createdObject(typeSuffix string) (string, bool) {
	for _, ch := range r.ObjectChanges {
		if ch.Type == "created" && strings.HasSuffix(ch.ObjectType, typeSuffix) {
			return ch.ObjectID, true
		}
	}
	return "", false
}

// CreateListing mints a ContentListing on the marketplace. The blob id is
// attached afterwards once the payload is actually stored.
func (c *Client) CreateListing(ctx context.Context, title, description, theme string, priceMist uint64) (CreatedListing, error) {
	result, err := c.moveCall(ctx, "create_listing", []any{
		c.MarketplaceID,
		title,
		description,
		theme,
		strconv.FormatUint(priceMist, 10),
		clockObjectID,
	})
	if err != nil {
		return CreatedListing{}, fmt.Errorf("creating listing: %w", err)
	}

	listingID, ok := result.createdObject("::content_marketplace::ContentListing")
	if !ok {
		return CreatedListing{}, fmt.Errorf("transaction %s created no listing object", result.Digest)
	}
	capID, ok := result.createdObject("::content_marketplace::ListingCap")
	if !ok {
		return CreatedListing{}, fmt.Errorf("transaction %s created no listing cap", result.Digest)
	}
	return CreatedListing{ListingID: listingID, CapID: capID, Digest: result.Digest}, nil
}

// UpdateBlobID attaches the stored blob id to a listing using its cap.
func (c *Client) UpdateBlobID(ctx context.Context, listingID, capID, blobID string) error {
	_, err := c.moveCall(ctx, "update_blob_id", []any{listingID, capID, blobID})
	if err != nil {
		return fmt.Errorf("attaching blob to listing %s: %w", listingID, err)
	}
	return nil
}

// Purchase buys a listing, paying from the caller's first SUI coin large
// enough to cover the price.
func (c *Client) Purchase(ctx context.Context, listingID string, priceMist uint64) (string, error) {
	coinID, err := c.selectCoin(ctx, priceMist)
	if err != nil {
		return "", fmt.Errorf("purchasing listing %s: %w", listingID, err)
	}
	result, err := c.moveCall(ctx, "purchase", []any{
		c.MarketplaceID,
		listingID,
		coinID,
		clockObjectID,
	})
	if err != nil {
		return "", fmt.Errorf("purchasing listing %s: %w", listingID, err)
	}
	return result.Digest, nil
}

func (c *Client) selectCoin(ctx context.Context, amount uint64) (string, error) {
	var page struct {
		Data []struct {
			CoinObjectID string `json:"coinObjectId"`
			Balance      string `json:"balance"`
		} `json:"data"`
	}
	err := c.call(ctx, "suix_getCoins", []any{c.Signer.Address, suiCoinType, nil, nil}, &page)
	if err != nil {
		return "", err
	}
	for _, coin := range page.Data {
		balance, err := strconv.ParseUint(coin.Balance, 10, 64)
		if err != nil {
			continue
		}
		if balance >= amount {
			return coin.CoinObjectID, nil
		}
	}
	return "", fmt.Errorf("no coin with balance >= %d MIST", amount)
}

// GetListing reads a ContentListing object.
func (c *Client) GetListing(ctx context.Context, listingID string) (*types.Listing, error) {
	var result struct {
		Data struct {
			ObjectID string `json:"objectId"`
			Content  struct {
				Fields map[string]json.RawMessage `json:"fields"`
			} `json:"content"`
		} `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	err := c.call(ctx, "sui_getObject", []any{listingID, map[string]bool{"showContent": true}}, &result)
	if err != nil {
		return nil, fmt.Errorf("reading listing %s: %w", listingID, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("reading listing %s: %s", listingID, result.Error.Code)
	}

	fields := result.Data.Content.Fields
	if len(fields) == 0 {
		return nil, fmt.Errorf("listing %s has no readable content", listingID)
	}

	listing := &types.Listing{
		ID:               result.Data.ObjectID,
		Creator:          fieldString(fields, "creator"),
		Title:            fieldString(fields, "title"),
		Description:      fieldString(fields, "description"),
		Theme:            fieldString(fields, "theme"),
		PriceMist:        fieldUint(fields, "price"),
		BlobID:           fieldBlobID(fields, "walrus_blob_id"),
		TotalRevenueMist: fieldUint(fields, "total_revenue"),
		Active:           fieldBool(fields, "active"),
		CreatedAtMs:      int64(fieldUint(fields, "created_at")),
	}

	var buyers []string
	if raw, ok := fields["buyers"]; ok {
		_ = json.Unmarshal(raw, &buyers)
	}
	listing.Buyers = buyers
	return listing, nil
}

func fieldString(fields map[string]json.RawMessage, name string) string {
	var s string
	if raw, ok := fields[name]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// fieldUint handles Move u64 values, which the node renders as JSON strings.
func fieldUint(fields map[string]json.RawMessage, name string) uint64 {
	raw, ok := fields[name]
	if !ok {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, _ := strconv.ParseUint(s, 10, 64)
		return v
	}
	var n uint64
	_ = json.Unmarshal(raw, &n)
	return n
}

func fieldBool(fields map[string]json.RawMessage, name string) bool {
	var b bool
	if raw, ok := fields[name]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

// fieldBlobID handles both renderings of the blob id field: a plain string
// or a vector<u8> of character codes.
func fieldBlobID(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var codes []uint16
	if err := json.Unmarshal(raw, &codes); err == nil {
		b := make([]byte, len(codes))
		for i, c := range codes {
			b[i] = byte(c)
		}
		return string(b)
	}
	return ""
}
